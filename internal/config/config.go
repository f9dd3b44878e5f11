package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/go-mizu/xbind"
	"github.com/go-mizu/xbind/internal/logging"
)

var AppFs = afero.NewOsFs()

// Config holds the CLI configuration.
type Config struct {
	DSN          string
	Driver       string
	User         string
	Password     string
	LogLevel     string
	AutoBind     bool
	FetchStyle   string
	LowerColumns bool
	Dialect      string
}

var dialects = map[string]xbind.Placeholder{
	"question": xbind.PlaceholderQuestion,
	"dollar":   xbind.PlaceholderDollar,
	"atp":      xbind.PlaceholderAtP,
	"colon":    xbind.PlaceholderColonNum,
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dsn", "sqlite::memory:")
	v.SetDefault("driver", "")
	v.SetDefault("user", "")
	v.SetDefault("password", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("autobind", true)
	v.SetDefault("fetch_style", "hash")
	v.SetDefault("lower_columns", false)
	v.SetDefault("dialect", "")
}

// Load reads configuration into v from, lowest priority first: defaults,
// the .xbind.yaml config file (or configFile when set), .env, .env.local,
// XBIND_* environment variables and any flags already bound to v.
func Load(v *viper.Viper, configFile string) (Config, error) {
	v.SetFs(AppFs)
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, err
		}
		v.SetConfigName(".xbind")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "xbind"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := loadDotenv(".env", false); err != nil {
		return Config{}, err
	}
	if err := loadDotenv(".env.local", true); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix("XBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("dsn", "XBIND_DSN", "DATABASE_URL")

	cfg := Config{
		DSN:          strings.TrimSpace(v.GetString("dsn")),
		Driver:       strings.TrimSpace(v.GetString("driver")),
		User:         v.GetString("user"),
		Password:     v.GetString("password"),
		LogLevel:     strings.TrimSpace(v.GetString("log_level")),
		AutoBind:     v.GetBool("autobind"),
		FetchStyle:   strings.ToLower(strings.TrimSpace(v.GetString("fetch_style"))),
		LowerColumns: v.GetBool("lower_columns"),
		Dialect:      strings.ToLower(strings.TrimSpace(v.GetString("dialect"))),
	}
	return cfg, cfg.Validate()
}

// loadDotenv applies a dotenv file from AppFs to the process environment.
// Variables that are already set win unless override is true.
func loadDotenv(name string, override bool) error {
	f, err := AppFs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for k, val := range vars {
		if cur, ok := os.LookupEnv(k); ok && strings.TrimSpace(cur) != "" && !override {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("dsn must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.FetchStyle {
	case "hash", "array":
	default:
		return fmt.Errorf("fetch_style must be hash or array, got %q", c.FetchStyle)
	}
	if _, ok := dialects[c.Dialect]; c.Dialect != "" && !ok {
		return fmt.Errorf("unknown dialect %q (expected question|dollar|atp|colon)", c.Dialect)
	}
	return nil
}

// Library returns the library configuration and, when a dialect was set
// explicitly, true so the caller keeps its placeholder style.
func (c Config) Library() (xbind.Config, bool) {
	cfg := xbind.DefaultConfig()
	cfg.AutoBind = c.AutoBind
	cfg.LowerColumns = c.LowerColumns
	if c.FetchStyle == "array" {
		cfg.FetchStyle = xbind.FetchArray
	}
	ph, ok := dialects[c.Dialect]
	if ok {
		cfg.Placeholder = ph
	}
	return cfg, ok
}
