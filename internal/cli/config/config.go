// Package config loads evtc's project configuration from evtc.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the evtc configuration.
type Config struct {
	// HostVersion is the host framework's numeric version, e.g. 50200 for
	// 5.2.0. It feeds the @if preprocessor and version-gated grammar
	// features.
	HostVersion int `mapstructure:"host_version"`

	// Debug adds diagnostic lines to generated hooks.
	Debug bool `mapstructure:"debug"`

	Build   BuildConfig    `mapstructure:"build"`
	Modules []ModuleConfig `mapstructure:"modules"`
	Watch   WatchConfig    `mapstructure:"watch"`
}

// BuildConfig represents build configuration.
type BuildConfig struct {
	// OutputDir is where generated units are written.
	OutputDir string `mapstructure:"output_dir"`
}

// ModuleConfig declares one grammar module known to the downstream
// toolchain: its identifier, the grammar source file defining it, and the
// unit types it provides.
type ModuleConfig struct {
	ID    string   `mapstructure:"id"`
	File  string   `mapstructure:"file"`
	Units []string `mapstructure:"units"`
}

// WatchConfig represents watch-mode configuration.
type WatchConfig struct {
	Patterns []string `mapstructure:"patterns"`
	Ignored  []string `mapstructure:"ignored"`
}

// Load loads the configuration from evtc.yml or evtc.yaml.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("host_version", 50200)
	v.SetDefault("debug", false)
	v.SetDefault("build.output_dir", "build/generated")
	v.SetDefault("watch.patterns", []string{"*.evt"})

	v.SetConfigName("evtc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetProjectRoot tries to find the project root by looking for evtc.yml.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "evtc.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "evtc.yaml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in an evtc project (no evtc.yml found)")
		}
		dir = parent
	}
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.HostVersion <= 0 {
		return fmt.Errorf("host_version must be positive, got: %d", cfg.HostVersion)
	}
	if cfg.Build.OutputDir == "" {
		return fmt.Errorf("build.output_dir must not be empty")
	}

	seen := map[string]bool{}
	for _, m := range cfg.Modules {
		if m.ID == "" {
			return fmt.Errorf("module entry without id")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate module id: %s", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}
