package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/go-mizu/xbind"
)

// NewTranslateCommand prints the positional form of a statement and its
// placeholder index without touching a database.
func NewTranslateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "translate [sql]",
		Short: "Show the rewritten SQL and placeholder positions",
		Long: `Rewrite a statement the way xbind prepares it and list every
placeholder identifier with the positions it binds to. The SQL is read from
standard input when no argument is given.`,
		Example: `  xbind translate "SELECT name FROM t WHERE a = :x AND b = :x"
  echo "SELECT ?1, ?2" | xbind translate --dialect dollar`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readSQL(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			lib, _ := a.cfg.Library()
			return renderTranslation(cmd.OutOrStdout(), xbind.Analyze(query), lib.Placeholder)
		},
	}
}

func readSQL(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	query := strings.TrimSpace(string(b))
	if query == "" {
		return "", fmt.Errorf("no SQL given")
	}
	return query, nil
}

func renderTranslation(w io.Writer, t xbind.Translation, ph xbind.Placeholder) error {
	fmt.Fprintf(w, "sql:     %s\n", t.For(ph))
	fmt.Fprintf(w, "scheme:  %s\n", t.Scheme)
	fmt.Fprintf(w, "markers: %d\n", t.Markers)

	ix := t.Index()
	if ix == nil {
		return nil
	}
	data := pterm.TableData{{"Identifier", "Count", "Positions"}}
	seen := make(map[string]bool)
	for _, id := range ix.Order() {
		pos := ix.PositionsFor(id)
		if seen[fmt.Sprint(pos)] {
			continue
		}
		seen[fmt.Sprint(pos)] = true
		parts := make([]string, len(pos))
		for i, p := range pos {
			parts[i] = fmt.Sprint(p)
		}
		data = append(data, []string{id, fmt.Sprint(len(pos)), strings.Join(parts, ", ")})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, table)
	return nil
}
