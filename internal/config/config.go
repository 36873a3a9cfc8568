package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Scoring ScoringConfig `mapstructure:"scoring"`
	Output  OutputConfig  `mapstructure:"output"`
	History HistoryConfig `mapstructure:"history"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ScoringConfig contains scoring defaults
type ScoringConfig struct {
	Algorithm string `mapstructure:"algorithm"`
}

// OutputConfig contains result rendering configuration
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// HistoryConfig controls run persistence
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".config", "fscore"))
	}
	viper.AddConfigPath(".")

	setDefaults()

	// Environment variable overrides
	viper.SetEnvPrefix("FSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand paths
	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	viper.SetDefault("scoring.algorithm", "size")
	viper.SetDefault("output.format", "plain")

	viper.SetDefault("history.enabled", false)

	viper.SetDefault("paths.data_dir", filepath.Join(homeDir, ".local", "share", "fscore"))
	viper.SetDefault("paths.db_file", filepath.Join(homeDir, ".local", "share", "fscore", "history.db"))
	viper.SetDefault("paths.log_file", filepath.Join(homeDir, ".local", "share", "fscore", "fscore.log"))

	viper.SetDefault("logging.level", "warn")
	viper.SetDefault("logging.color", "auto")
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	path = os.ExpandEnv(path)

	return path
}
