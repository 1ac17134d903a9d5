package lifecycle

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// install launches msiexec on the staged package. The installer closes the
// running app itself.
func install(staged string) error {
	if !strings.EqualFold(filepath.Ext(staged), ".msi") {
		return fmt.Errorf("%w: unexpected installer %s", ErrUnsupported, filepath.Base(staged))
	}
	logFile := filepath.Join(AppDataDir, "install.log")
	cmd := exec.Command("msiexec", "/i", staged, "/passive", "/norestart", "/log", logFile)
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: 0x08000000} // CREATE_NO_WINDOW
	slog.Debug("starting installer", "cmd", cmd.String())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start installer: %w", err)
	}
	return cmd.Process.Release()
}
