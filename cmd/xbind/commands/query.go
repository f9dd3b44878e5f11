package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/go-mizu/xbind"
)

// NewQueryCommand runs a statement and prints its rows.
func NewQueryCommand(a *app) *cobra.Command {
	var (
		params []string
		format string
	)

	cmd := &cobra.Command{
		Use:   "query <sql> [value...]",
		Short: "Run a query and print the rows",
		Long: `Run a query and print its rows as a table, or as one JSON value per
row with --format json. JSON rows follow --style: objects for hash,
arrays for array.`,
		Example: `  xbind query "SELECT id, name FROM users WHERE team = @team" -p @team=core
  xbind query --format json --style array "SELECT * FROM users WHERE id > ?1" 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (expected table or json)", format)
			}
			vals, err := bindArgs(params, args[1:])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := db.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			st, err := db.Prepare(ctx, args[0])
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Query(ctx, vals...); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				rows, err := st.FetchAll(xbind.Chain{xbind.Map(textBytes)})
				if err != nil {
					return err
				}
				return writeJSON(out, rows)
			}

			cols := st.Columns()
			rows, err := st.FetchAllArray(nil)
			if err != nil {
				return err
			}
			return writeTable(out, cols, rows)
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "named value as name=value (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json")
	return cmd
}

// textBytes turns []byte cells into strings so JSON shows text.
func textBytes(row any) any {
	switch r := row.(type) {
	case []any:
		for i, v := range r {
			if b, ok := v.([]byte); ok {
				r[i] = string(b)
			}
		}
	case map[string]any:
		for k, v := range r {
			if b, ok := v.([]byte); ok {
				r[k] = string(b)
			}
		}
	}
	return row
}

func writeJSON(w io.Writer, rows []any) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, cols []string, rows []any) error {
	data := pterm.TableData{cols}
	for _, r := range rows {
		cells := r.([]any)
		line := make([]string, len(cells))
		for i, v := range cells {
			switch v := v.(type) {
			case nil:
				line[i] = "NULL"
			case []byte:
				line[i] = string(v)
			default:
				line[i] = fmt.Sprint(v)
			}
		}
		data = append(data, line)
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)
	color.New(color.Faint).Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}
