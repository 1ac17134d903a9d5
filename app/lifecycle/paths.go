package lifecycle

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

var (
	AppName        = "Focus"
	AppDataDir     = filepath.Join(os.TempDir(), "focus")
	UpdateStageDir = filepath.Join(AppDataDir, "updates")
	AppLogFile     = filepath.Join(AppDataDir, "app.log")
	StoreFile      = filepath.Join(AppDataDir, "config.json")

	// Installer names a staged artifact when its URL has no usable file name.
	Installer = "FocusSetup.msi"
)

func init() {
	base, err := dataRoot()
	if err != nil {
		slog.Warn("error discovering app data directory, using temp dir", "error", err)
		return
	}
	setPaths(filepath.Join(base, AppName))

	// Make sure our logging dir exists
	_, err = os.Stat(AppDataDir)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(AppDataDir, 0o755); err != nil {
			slog.Error("failed to create app data dir", "path", AppDataDir, "error", err)
		}
	}
}

// dataRoot is LOCALAPPDATA on windows, and the user config dir elsewhere
// (~/Library/Application Support, $XDG_CONFIG_HOME).
func dataRoot() (string, error) {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return local, nil
		}
	}
	return os.UserConfigDir()
}

func setPaths(dataDir string) {
	AppDataDir = dataDir
	UpdateStageDir = filepath.Join(dataDir, "updates")
	AppLogFile = filepath.Join(dataDir, "app.log")
	StoreFile = filepath.Join(dataDir, "config.json")
}
