// Package config loads the application settings from settings.json in the app
// data directory, with FOCUS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingEndpoint is returned, together with the loaded settings, when
// updates are enabled without an endpoint.
var ErrMissingEndpoint = errors.New("update.endpoint is required when updates are enabled")

const (
	configFileName = "settings"
	envPrefix      = "FOCUS"
)

// AppConfig holds values loaded from settings.json and the environment.
type AppConfig struct {
	Update   UpdateConfig   `mapstructure:"update"`
	Shortcut ShortcutConfig `mapstructure:"shortcut"`
	Log      LogConfig      `mapstructure:"log"`
	Window   WindowConfig   `mapstructure:"window"`
}

type UpdateConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the URL of the release manifest (latest.json).
	Endpoint string `mapstructure:"endpoint"`
	// PubKey is the base64 encoded minisign public key used to verify artifacts.
	PubKey       string        `mapstructure:"pubkey"`
	Interval     time.Duration `mapstructure:"interval"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

type ShortcutConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Binding string `mapstructure:"binding"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type WindowConfig struct {
	StartHidden bool `mapstructure:"start_hidden"`
	Width       int  `mapstructure:"width"`
	Height      int  `mapstructure:"height"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("update.enabled", true)
	v.SetDefault("update.endpoint", "https://releases.reenvision.ai/focus/latest/latest.json")
	v.SetDefault("update.pubkey", "")
	v.SetDefault("update.interval", 24*time.Hour)
	v.SetDefault("update.initial_delay", 30*time.Second)
	v.SetDefault("shortcut.enabled", true)
	v.SetDefault("shortcut.binding", "super+e")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("window.start_hidden", false)
	v.SetDefault("window.width", 448)
	v.SetDefault("window.height", 320)
}

// LoadConfig reads settings.json from dir if it exists. A missing file is not
// an error: defaults and environment overrides still apply.
func LoadConfig(dir string) (AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("json")
	v.SetConfigName(configFileName)
	if dir != "" {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("failed to parse config in %q: %w", dir, err)
		}
		slog.Debug("no config file found, using defaults", "dir", dir)
	} else {
		slog.Info("Using configuration file", "path", v.ConfigFileUsed())
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Update.Interval < time.Minute {
		slog.Warn("update interval too small, using fallback", "interval", cfg.Update.Interval)
		cfg.Update.Interval = 24 * time.Hour
	}
	if cfg.Update.Enabled && cfg.Update.Endpoint == "" {
		return cfg, ErrMissingEndpoint
	}

	return cfg, nil
}

// Default returns the built-in settings with no file or environment applied.
func Default() AppConfig {
	v := viper.New()
	setDefaults(v)
	var cfg AppConfig
	_ = v.Unmarshal(&cfg)
	return cfg
}

// SlogLevel maps the configured level name onto a slog.Level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
