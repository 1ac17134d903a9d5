// Package manifest describes the latest.json release manifest consumed by the
// updater and produced by the release tooling.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileName is the manifest name published next to the release artifacts.
const FileName = "latest.json"

type Platform struct {
	URL       string `json:"url"`
	Signature string `json:"signature"`
	SHA256    string `json:"sha256,omitempty"`
}

type Manifest struct {
	Version   string              `json:"version"`
	PubDate   string              `json:"pub_date"`
	Platforms map[string]Platform `json:"platforms"`
	Notes     string              `json:"notes,omitempty"`
}

// PlatformKey maps a GOOS/GOARCH pair onto the manifest platform label, e.g.
// darwin/arm64 -> darwin-aarch64.
func PlatformKey(goos, goarch string) string {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	}
	return goos + "-" + arch
}

// Lookup returns the entry for the given platform label.
func (m Manifest) Lookup(key string) (Platform, bool) {
	p, ok := m.Platforms[key]
	return p, ok
}

func Decode(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return m, fmt.Errorf("malformed manifest: %w", err)
	}
	if m.Version == "" {
		return m, fmt.Errorf("malformed manifest: missing version")
	}
	return m, nil
}

// Write stores m as dir/latest.json, two-space indented with a trailing newline,
// and returns the path written.
func Write(dir string, m Manifest) (string, error) {
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	payload = append(payload, '\n')

	out := filepath.Join(dir, FileName)
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
