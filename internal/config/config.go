// Package config loads schedctl settings from an optional YAML/JSON file,
// SCHEDCTL_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	schedule "github.com/hariom-ql2/schedspec"
)

// EnvPrefix prefixes environment overrides: log.level is SCHEDCTL_LOG_LEVEL.
const EnvPrefix = "SCHEDCTL"

type Config struct {
	Log LogConfig `mapstructure:"log"`

	// Timezone fills in schedule files that omit schedule_data.timezone.
	// Empty means such files fail validation with MissingTimezone.
	Timezone string `mapstructure:"timezone"`

	Store StoreConfig `mapstructure:"store"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" | "json"
}

// StoreConfig selects where saved schedules live.
//
// Defaults:
//   - driver: sqlite
//   - dsn: schedules.db (sqlite path) or mongodb://localhost:27017
//   - database: schedules (mongodb only)
//   - collection: schedules (mongodb only)
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

const (
	DriverSQLite  = "sqlite"
	DriverMongoDB = "mongodb"
)

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("timezone", "")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.database", "schedules")
	v.SetDefault("store.collection", "schedules")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path (if non-empty) into v and returns the
// merged, validated configuration.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.DSN == "" {
		switch c.Store.Driver {
		case DriverMongoDB:
			c.Store.DSN = "mongodb://localhost:27017"
		default:
			c.Store.DSN = "schedules.db"
		}
	}
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverMongoDB:
	default:
		return errors.Errorf("store.driver: unsupported driver %q (use %s or %s)", c.Store.Driver, DriverSQLite, DriverMongoDB)
	}
	if c.Timezone != "" && !schedule.IsValidTimezone(c.Timezone) {
		return errors.Errorf("timezone: %q is not an IANA timezone", c.Timezone)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return errors.Errorf("log.format: unsupported format %q (use console or json)", c.Log.Format)
	}
	return nil
}
