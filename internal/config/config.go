// Package config handles configuration loading from files and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CASEINTAKE_DATABASE.
const EnvPrefix = "CASEINTAKE"

// Config holds all configuration for the caseintake CLI.
type Config struct {
	// Database is the SQLite path of the case log.
	Database string `mapstructure:"database"`

	// Rules is a CUE rule-set document. Empty uses the embedded default.
	Rules string `mapstructure:"rules"`

	// ReferenceData is a YAML reference-data file. Empty uses the embedded
	// default.
	ReferenceData string `mapstructure:"reference_data"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// MaterialLifetime is how long a material may stay pending before sweep
	// expires it.
	MaterialLifetime time.Duration `mapstructure:"material_lifetime"`
}

// Load reads configPath (optional) and CASEINTAKE_* environment overrides.
// Without a path it looks for caseintake.yaml in the working directory and
// $HOME/.caseintake; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("caseintake")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.caseintake")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges viper cannot express.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log_format %q: want json or console", c.LogFormat)
	}
	if c.Database == "" {
		return errors.New("database must not be empty")
	}
	if c.MaterialLifetime <= 0 {
		return fmt.Errorf("material_lifetime must be positive, got %s", c.MaterialLifetime)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", "caseintake.db")
	v.SetDefault("rules", "")
	v.SetDefault("reference_data", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("material_lifetime", 720*time.Hour)
}
