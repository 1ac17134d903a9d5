package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	ErrMissingVersion = errors.New("APP_VERSION env var is required")
	ErrMissingHost    = errors.New("RELEASE_HOST env var is required")
)

// Options controls manifest generation from a directory of signed artifacts.
type Options struct {
	ArtifactsDir string
	Version      string
	ReleaseHost  string
	Channel      string
	Prefix       string
	Notes        string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Added records an artifact that made it into the manifest.
type Added struct {
	Label string
	Path  string
}

// Skipped records an optional platform with no usable artifact.
type Skipped struct {
	Label string
	Err   error
}

type Report struct {
	Added   []Added
	Skipped []Skipped
}

type matcher struct {
	label    string
	required bool
	match    func(path string) bool
}

var windowsArch = regexp.MustCompile(`(?i)x64|x86_64`)

var matchers = []matcher{
	{
		label:    "darwin-aarch64",
		required: true,
		match: func(p string) bool {
			return strings.HasSuffix(p, ".app.tar.gz") && strings.Contains(p, "_aarch64")
		},
	},
	{
		label:    "darwin-x86_64",
		required: true,
		match: func(p string) bool {
			return strings.HasSuffix(p, ".app.tar.gz") && strings.Contains(p, "_x86_64")
		},
	},
	{
		label: "windows-x86_64",
		match: func(p string) bool {
			return strings.HasSuffix(strings.ToLower(p), ".msi") && windowsArch.MatchString(filepath.Base(p))
		},
	},
}

// Generate walks opts.ArtifactsDir and builds the manifest. Darwin artifacts
// are mandatory; other platforms are skipped when absent.
func Generate(opts Options) (Manifest, Report, error) {
	var report Report

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		return Manifest{}, report, ErrMissingVersion
	}
	host := strings.TrimSpace(opts.ReleaseHost)
	if host == "" {
		return Manifest{}, report, ErrMissingHost
	}

	dir, err := filepath.Abs(opts.ArtifactsDir)
	if err != nil {
		return Manifest{}, report, fmt.Errorf("resolve artifacts directory: %w", err)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return Manifest{}, report, fmt.Errorf("artifacts directory not found: %s", dir)
	}

	files, err := listFiles(dir)
	if err != nil {
		return Manifest{}, report, err
	}
	if len(files) == 0 {
		return Manifest{}, report, fmt.Errorf("artifacts directory is empty: %s", dir)
	}
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f] = struct{}{}
	}

	base := BaseURL(host, opts.Prefix, opts.Channel)
	platforms := make(map[string]Platform)

	for _, m := range matchers {
		path, p, err := buildEntry(m, dir, files, present, base)
		if err != nil {
			if m.required {
				return Manifest{}, report, err
			}
			report.Skipped = append(report.Skipped, Skipped{Label: m.label, Err: err})
			continue
		}
		platforms[m.label] = p
		report.Added = append(report.Added, Added{Label: m.label, Path: relativeURLPath(dir, path)})
	}

	if len(platforms) == 0 {
		return Manifest{}, report, errors.New("no platform artifacts found, aborting latest.json generation")
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	return Manifest{
		Version:   version,
		PubDate:   now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Platforms: platforms,
		Notes:     strings.TrimSpace(opts.Notes),
	}, report, nil
}

// BaseURL joins the release host, optional prefix and channel with single
// slashes. An empty channel falls back to "latest".
func BaseURL(host, prefix, channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "latest"
	}
	parts := []string{strings.TrimRight(strings.TrimSpace(host), "/")}
	if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
		parts = append(parts, p)
	}
	if c := strings.Trim(channel, "/"); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, "/")
}

func buildEntry(m matcher, dir string, files []string, present map[string]struct{}, base string) (string, Platform, error) {
	var artifact string
	for _, f := range files {
		if strings.HasSuffix(f, ".sig") {
			continue
		}
		if m.match(f) {
			artifact = f
			break
		}
	}
	if artifact == "" {
		return "", Platform{}, fmt.Errorf("unable to find %s artifact in %s", m.label, dir)
	}

	sigPath := artifact + ".sig"
	if _, ok := present[sigPath]; !ok {
		return "", Platform{}, fmt.Errorf("missing signature for %s", artifact)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return "", Platform{}, fmt.Errorf("read signature %s: %w", sigPath, err)
	}
	sum, err := SHA256File(artifact)
	if err != nil {
		return "", Platform{}, err
	}

	return artifact, Platform{
		URL:       base + "/" + relativeURLPath(dir, artifact),
		Signature: strings.TrimSpace(string(sig)),
		SHA256:    sum,
	}, nil
}

// SHA256File returns the hex encoded sha256 digest of the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func relativeURLPath(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
