package lifecycle

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/ReEnvision-AI/focus/internal/config"
	"github.com/ReEnvision-AI/focus/internal/logging"
)

var appLogger *logging.Logger

func InitLogging(cfg config.LogConfig) {
	l, err := logging.New(AppLogFile, logging.Options{
		Level:      cfg.SlogLevel(),
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Stderr:     true,
	})
	if err != nil {
		slog.Error(fmt.Sprintf("failed to create log %v", err))
		return
	}
	appLogger = l
	slog.SetDefault(l.Logger)

	slog.Info("Focus logging starting", "path", AppLogFile)
}

func closeLogging() {
	if appLogger == nil {
		return
	}
	if err := appLogger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log: %v\n", err)
	}
}

// ShowLogs opens the app data directory in the platform file browser.
func ShowLogs() {
	slog.Debug(fmt.Sprintf("viewing logs in %s", AppDataDir))
	cmd := exec.Command(fileBrowser(), AppDataDir)
	if err := cmd.Start(); err != nil {
		slog.Error(fmt.Sprintf("Failed to open log dir: %s", err))
		return
	}
	go func() { _ = cmd.Wait() }()
}

func fileBrowser() string {
	switch runtime.GOOS {
	case "windows":
		return "explorer"
	case "darwin":
		return "open"
	default:
		return "xdg-open"
	}
}
