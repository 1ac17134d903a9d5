package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Update.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Update.Interval)
	assert.Equal(t, 30*time.Second, cfg.Update.InitialDelay)
	assert.Equal(t, "super+e", cfg.Shortcut.Binding)
	assert.True(t, cfg.Shortcut.Enabled)
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	body := `{
  "update": {"endpoint": "https://example.com/latest.json", "interval": "6h"},
  "shortcut": {"binding": "ctrl+shift+f"},
  "log": {"level": "debug"},
  "window": {"start_hidden": true}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(body), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/latest.json", cfg.Update.Endpoint)
	assert.Equal(t, 6*time.Hour, cfg.Update.Interval)
	assert.Equal(t, "ctrl+shift+f", cfg.Shortcut.Binding)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.True(t, cfg.Window.StartHidden)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FOCUS_SHORTCUT_ENABLED", "false")
	t.Setenv("FOCUS_UPDATE_PUBKEY", "abc")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.False(t, cfg.Shortcut.Enabled)
	assert.Equal(t, "abc", cfg.Update.PubKey)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{"), 0o644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigClampsInterval(t *testing.T) {
	t.Setenv("FOCUS_UPDATE_INTERVAL", "1s")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Update.Interval)
}

func TestLoadConfigRequiresEndpoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"update": {"endpoint": ""}, "shortcut": {"binding": "ctrl+f"}}`), 0o644))

	cfg, err := LoadConfig(dir)
	assert.ErrorIs(t, err, ErrMissingEndpoint)
	assert.Equal(t, "ctrl+f", cfg.Shortcut.Binding)
}

func TestSlogLevelFallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "loud"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
}

func TestDefaultMatchesEmptyLoad(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, cfg, Default())
}
