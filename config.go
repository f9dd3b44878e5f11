package xbind

import "log/slog"

// FetchStyle chooses the row shape FetchRow, FetchAll and cursors produce.
type FetchStyle int

const (
	// FetchHash yields map[string]any keyed by column name.
	FetchHash FetchStyle = iota
	// FetchArray yields []any in column order.
	FetchArray
)

func (s FetchStyle) String() string {
	if s == FetchArray {
		return "array"
	}
	return "hash"
}

// Config is fixed when a DB is created; statements copy what they need.
type Config struct {
	// AutoBind lets Execute, Query and Iterate resolve binding values through
	// the statement's placeholder index. When false, values go straight to
	// the driver in rewritten-marker order.
	AutoBind bool
	// FetchStyle is the shape used by FetchRow, FetchAll and cursors.
	FetchStyle FetchStyle
	// Placeholder is the marker style the driver expects.
	Placeholder Placeholder
	// LowerColumns lower-cases hash keys (and strips quoting) before rows
	// reach the callback chain.
	LowerColumns bool
	// Logger receives debug records; nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns auto-bind on, hash rows and "?" markers.
func DefaultConfig() Config {
	return Config{AutoBind: true, FetchStyle: FetchHash, Placeholder: PlaceholderQuestion}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
