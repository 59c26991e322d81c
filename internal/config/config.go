// Package config loads biblemarker settings from defaults, an optional
// config file, BIBLEMARKER_* environment variables and bound flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/kittclouds/biblemarker/internal/logging"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BIBLEMARKER"

// Keys
const (
	KeyDBPath      = "db_path"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
	KeyTranslation = "translation"
	KeyCacheSize   = "cache_size"
	KeyPresetsFile = "presets_file"
	KeySnapshotDir = "snapshot_dir"
)

// Config is the resolved configuration.
type Config struct {
	DBPath      string `mapstructure:"db_path"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	Translation string `mapstructure:"translation"`
	CacheSize   int    `mapstructure:"cache_size"`
	PresetsFile string `mapstructure:"presets_file"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBPath, ":memory:")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyTranslation, "KJV")
	v.SetDefault(KeyCacheSize, 256)
	v.SetDefault(KeyPresetsFile, "")
	v.SetDefault(KeySnapshotDir, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (if set) into v and returns the validated result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks value ranges and enums.
func (c *Config) Validate() error {
	if c.CacheSize <= 0 {
		return fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidConfig, c.CacheSize)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if strings.TrimSpace(c.Translation) == "" {
		return fmt.Errorf("%w: translation is required", ErrInvalidConfig)
	}
	return nil
}

// InitLogging configures the global logger from c.
func (c *Config) InitLogging() {
	level, _ := logging.ParseLevel(c.LogLevel)
	format, _ := logging.ParseFormat(c.LogFormat)
	logging.InitLogger(level, format)
}

// LoadPresets reads a JSON array of keyword presets. An empty path yields none.
func LoadPresets(path string) ([]keyword.Preset, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var presets []keyword.Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return presets, nil
}
