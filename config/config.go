// Package config loads rentbook settings from defaults, an optional YAML
// file, a .env file and RENTBOOK_* environment variables, in rising order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. RENTBOOK_STORE_DRIVER.
const EnvPrefix = "RENTBOOK"

// Config holds the rentbook configuration.
type Config struct {
	Store struct {
		// Driver is one of memory, file, sqlite, postgres, mongo, redis.
		Driver string `mapstructure:"driver" yaml:"driver"`
		// Path is the JSON document of the file backend or the sqlite
		// database file.
		Path string `mapstructure:"path" yaml:"path"`
		// DSN is the connection string of the network backends.
		DSN string `mapstructure:"dsn" yaml:"dsn"`
		// Database names the mongo database.
		Database string `mapstructure:"database" yaml:"database"`
		// Prefix namespaces keys in redis and the table or collection
		// name elsewhere.
		Prefix string `mapstructure:"prefix" yaml:"prefix"`
	} `mapstructure:"store" yaml:"store"`

	Currency string `mapstructure:"currency" yaml:"currency"`

	Ledger struct {
		DuplicatePeriods string `mapstructure:"duplicate_periods" yaml:"duplicate_periods"`
		ChainPolicy      string `mapstructure:"chain_policy" yaml:"chain_policy"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Reminder struct {
		WindowDays int `mapstructure:"window_days" yaml:"window_days"`
		UrgentDays int `mapstructure:"urgent_days" yaml:"urgent_days"`
	} `mapstructure:"reminder" yaml:"reminder"`

	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Metrics struct {
		Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
		Namespace string `mapstructure:"namespace" yaml:"namespace"`
		// Textfile receives the metrics in text exposition format when a
		// command finishes, for the node_exporter textfile collector.
		Textfile string `mapstructure:"textfile" yaml:"textfile"`
	} `mapstructure:"metrics" yaml:"metrics"`
}

// Options tunes Load.
type Options struct {
	// File is an explicit config file. It must exist when set.
	File string
	// EnvFiles are loaded into the process environment first. Missing
	// files are skipped. Defaults to ".env".
	EnvFiles []string
	// SearchPaths are scanned for rentbook.yaml when File is empty.
	SearchPaths []string
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Existing environment variables win over the file.
		_ = godotenv.Load(f) //nolint:errcheck // best-effort, the file is optional
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case opts.File != "":
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	default:
		v.SetConfigName("rentbook")
		v.SetConfigType("yaml")
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg) //nolint:errcheck // defaults always decode
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "rentbook.json")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.database", "rentbook")
	v.SetDefault("store.prefix", "rentbook")
	v.SetDefault("currency", "inr")
	v.SetDefault("ledger.duplicate_periods", "allow")
	v.SetDefault("ledger.chain_policy", "preserve")
	v.SetDefault("reminder.window_days", 30)
	v.SetDefault("reminder.urgent_days", 7)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "rentbook")
	v.SetDefault("metrics.textfile", "")
}

var (
	drivers    = []string{"memory", "file", "sqlite", "postgres", "mongo", "redis"}
	duplicates = []string{"allow", "reject"}
	chains     = []string{"preserve", "repair"}
	levels     = []string{"debug", "info", "warn", "error"}
	formats    = []string{"text", "json"}
)

// Validate checks enumerated settings and thresholds.
func (c *Config) Validate() error {
	var errs []error
	check := func(key, value string, allowed []string) {
		for _, a := range allowed {
			if strings.EqualFold(value, a) {
				return
			}
		}
		errs = append(errs, fmt.Errorf("config: %s: %q is not one of %s", key, value, strings.Join(allowed, ", ")))
	}

	check("store.driver", c.Store.Driver, drivers)
	check("ledger.duplicate_periods", c.Ledger.DuplicatePeriods, duplicates)
	check("ledger.chain_policy", c.Ledger.ChainPolicy, chains)
	check("log.level", c.Log.Level, levels)
	check("log.format", c.Log.Format, formats)

	switch strings.ToLower(c.Store.Driver) {
	case "postgres", "mongo", "redis":
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("config: store.dsn is required for the %s driver", c.Store.Driver))
		}
	case "file", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("config: store.path is required for the %s driver", c.Store.Driver))
		}
	}
	if c.Reminder.WindowDays <= 0 || c.Reminder.UrgentDays <= 0 {
		errs = append(errs, errors.New("config: reminder thresholds must be positive"))
	}
	if c.Reminder.UrgentDays > c.Reminder.WindowDays {
		errs = append(errs, errors.New("config: reminder.urgent_days exceeds reminder.window_days"))
	}
	return errors.Join(errs...)
}
