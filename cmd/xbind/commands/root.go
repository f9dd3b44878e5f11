package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-mizu/xbind"
	"github.com/go-mizu/xbind/internal/config"
	"github.com/go-mizu/xbind/internal/logging"
)

// app is the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	cfg        config.Config
	log        *slog.Logger
	configFile string
	noAutoBind bool
}

// NewRootCommand builds the xbind command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "xbind",
		Short:         "Run SQL with named placeholders against any database/sql driver",
		Long:          "xbind rewrites :name, @name and ?N placeholders to the driver's positional form, binds values and prints results.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .xbind.yaml in ., $HOME or $HOME/.config/xbind)")
	flags.String("dsn", "", "database URL, e.g. sqlite:app.db or postgres://host/db")
	flags.String("driver", "", "force a registered database/sql driver name")
	flags.String("user", "", "database user, replaces the one in the DSN")
	flags.String("password", "", "database password, replaces the one in the DSN")
	flags.String("log-level", "", "debug|info|warn|error")
	flags.String("style", "", "row style: hash|array")
	flags.String("dialect", "", "marker style: question|dollar|atp|colon (default from driver)")
	flags.Bool("lower-columns", false, "lower-case column names")
	flags.BoolVar(&a.noAutoBind, "no-autobind", false, "send values to the driver as given")

	for key, name := range map[string]string{
		"dsn":           "dsn",
		"driver":        "driver",
		"user":          "user",
		"password":      "password",
		"log_level":     "log-level",
		"fetch_style":   "style",
		"dialect":       "dialect",
		"lower_columns": "lower-columns",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(NewTranslateCommand(a))
	rootCmd.AddCommand(NewExecCommand(a))
	rootCmd.AddCommand(NewQueryCommand(a))
	rootCmd.AddCommand(NewVersionCommand(version))

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	if a.noAutoBind {
		a.v.Set("autobind", false)
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) connect(ctx context.Context) (*xbind.DB, error) {
	lib, keep := a.cfg.Library()
	lib.Logger = a.log
	db, err := xbind.Connect(ctx, a.cfg.DSN, a.cfg.User, a.cfg.Password, xbind.Options{
		Config:          &lib,
		Driver:          a.cfg.Driver,
		KeepPlaceholder: keep,
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug("database ready", "dsn", xbind.RedactDSN(a.cfg.DSN))
	return db, nil
}
