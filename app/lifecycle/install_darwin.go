package lifecycle

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// install unpacks the .app.tar.gz next to the running bundle and swaps it in.
func install(staged string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	bundle, err := appBundle(exe)
	if err != nil {
		return err
	}

	parent := filepath.Dir(bundle)
	tmp, err := os.MkdirTemp(parent, ".focus-update-")
	if err != nil {
		return fmt.Errorf("create update dir next to %s: %w", bundle, err)
	}
	defer os.RemoveAll(tmp)

	if err := untarGz(staged, tmp); err != nil {
		return err
	}
	fresh := filepath.Join(tmp, filepath.Base(bundle))
	if _, err := os.Stat(fresh); err != nil {
		return fmt.Errorf("update archive has no %s: %w", filepath.Base(bundle), err)
	}

	backup := bundle + ".old"
	_ = os.RemoveAll(backup)
	if err := os.Rename(bundle, backup); err != nil {
		return fmt.Errorf("move current bundle aside: %w", err)
	}
	if err := os.Rename(fresh, bundle); err != nil {
		_ = os.Rename(backup, bundle)
		return fmt.Errorf("install new bundle: %w", err)
	}
	if err := os.RemoveAll(backup); err != nil {
		slog.Warn("failed to remove previous bundle", "path", backup, "error", err)
	}

	// relaunch once this process has exited
	cmd := exec.Command("/bin/sh", "-c", fmt.Sprintf("sleep 1; open %q", bundle))
	return cmd.Start()
}

func appBundle(exe string) (string, error) {
	dir := exe
	for dir != "/" && dir != "." {
		if strings.HasSuffix(dir, ".app") {
			return dir, nil
		}
		dir = filepath.Dir(dir)
	}
	return "", fmt.Errorf("%w: %s is not inside an .app bundle", ErrUnsupported, exe)
}
