// Package main is the entry point for the xbind CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/go-mizu/xbind/cmd/xbind/commands"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := run(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := commands.NewRootCommand(fmt.Sprintf("%s (commit: %s)", Version, Commit))
	return rootCmd.Execute()
}
