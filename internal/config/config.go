// Package config loads quizcycle settings from an optional YAML file, a
// .env file, and QUIZCYCLE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrUnknownDriver = errors.New("unknown database driver")
	ErrMissingURL    = errors.New("database.url is required for the postgres driver")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Env       string   `mapstructure:"env"`        // local, production
	LearnerID string   `mapstructure:"learner_id"` // progress owner
	Bank      string   `mapstructure:"bank"`       // question bank JSON file
	Database  Database `mapstructure:"database"`
	Exam      Exam     `mapstructure:"exam"`
	Cache     Cache    `mapstructure:"cache"`
	Log       Log      `mapstructure:"log"`
}

// Database selects and tunes the progress store.
type Database struct {
	Driver          string        `mapstructure:"driver"`            // sqlite or postgres
	Path            string        `mapstructure:"path"`              // sqlite file; empty resolves the default path
	URL             string        `mapstructure:"url"`               // postgres connection string
	MaxConnections  int           `mapstructure:"max_connections"`   // postgres pool size
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // postgres connection lifetime
}

// Exam configures the mock exam countdown.
type Exam struct {
	Duration     time.Duration `mapstructure:"duration"`
	TimerEnabled bool          `mapstructure:"timer_enabled"`
}

// Cache configures the local progress mirror. An empty Dir disables it.
type Cache struct {
	Dir string `mapstructure:"dir"`
}

// Log configures where logs go. The TUI owns the terminal, so logs go to a
// file by default.
type Log struct {
	File string `mapstructure:"file"`
}

// Load reads configuration. path names a config file; when empty,
// config.yaml is looked up in the working directory and
// $XDG_CONFIG_HOME/quizcycle, and a missing file is not an error.
func Load(path string) (*Config, error) {
	// Load .env file if it exists.
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "quizcycle"))
		}
	}

	v.SetDefault("env", "local")
	v.SetDefault("learner_id", defaultLearner())
	v.SetDefault("bank", "")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("exam.duration", "180m")
	v.SetDefault("exam.timer_enabled", true)
	v.SetDefault("cache.dir", "")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix("QUIZCYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.URL == "" {
			return ErrMissingURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}
	if c.Exam.Duration <= 0 {
		return fmt.Errorf("exam.duration must be positive, got %s", c.Exam.Duration)
	}
	return nil
}

func defaultLearner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "learner"
}
