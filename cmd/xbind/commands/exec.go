package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewExecCommand runs a statement that returns no rows.
func NewExecCommand(a *app) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "exec <sql> [value...]",
		Short: "Execute a statement and report affected rows",
		Example: `  xbind exec "UPDATE users SET name = :name WHERE id = :id" -p id=7 -p name=bob
  xbind exec "DELETE FROM users WHERE id = ?" 7`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			vals, err := bindArgs(params, args[1:])
			if err != nil {
				return err
			}
			db, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := db.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			n, err := db.Do(cmd.Context(), args[0], vals...)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "rows affected: %s\n", n)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "named value as name=value (repeatable)")
	return cmd
}
