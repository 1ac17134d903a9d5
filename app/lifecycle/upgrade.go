package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var ErrUnsupported = errors.New("in-place upgrade is not supported on this platform")

// DoUpgrade installs the staged artifact. On success the caller is expected
// to quit so the new version can take over.
func DoUpgrade(staged string) error {
	if staged == "" {
		return errors.New("no update has been downloaded")
	}
	if _, err := os.Stat(staged); err != nil {
		return fmt.Errorf("staged update missing: %w", err)
	}
	slog.Info("installing update", "path", staged)
	return install(staged)
}
