package logger

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds logging configuration.
type Config struct {
	Level   string        `yaml:"level"`
	Console ConsoleConfig `yaml:"console"`
	File    FileConfig    `yaml:"file"`
}

// ConsoleConfig controls the console handler. Target is "stdout" or "stderr";
// the CLI uses stderr so map output on stdout stays clean.
type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	Target  string `yaml:"target"`
}

// FileConfig controls the rotating file handler.
type FileConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	Format     string `yaml:"format"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type fileLayout struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig returns console-only text logging at INFO.
func DefaultConfig() Config {
	return Config{
		Level: "INFO",
		Console: ConsoleConfig{
			Enabled: true,
			Format:  "text",
			Target:  "stdout",
		},
		File: FileConfig{
			Path:       "logs/hexmap.log",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// LoadConfig reads the logging section of a YAML file over the defaults and
// then applies HEXMAP_LOG_* environment overrides. A missing file is not an
// error; a file that cannot be parsed is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			layout := fileLayout{Logging: cfg}
			if err := yaml.Unmarshal(data, &layout); err != nil {
				return cfg, fmt.Errorf("parse logging config %s: %w", path, err)
			}
			cfg = layout.Logging
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("read logging config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HEXMAP_LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("HEXMAP_LOG_FORMAT"); v != "" {
		cfg.Console.Format = v
	}
	if v := os.Getenv("HEXMAP_LOG_FILE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.File.Enabled = enabled
		}
	}
	if v := os.Getenv("HEXMAP_LOG_FILE_PATH"); v != "" {
		cfg.File.Path = v
	}
}
