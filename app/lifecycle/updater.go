package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/ReEnvision-AI/focus/internal/config"
	"github.com/ReEnvision-AI/focus/internal/manifest"
	"github.com/ReEnvision-AI/focus/version"
)

// DefaultMaxUpdateSize caps an artifact download when Updater.MaxSize is unset.
const DefaultMaxUpdateSize int64 = 512 << 20

var ErrUpdateTooLarge = errors.New("update artifact exceeds size limit")

type UpdateResponse struct {
	UpdateURL     string
	UpdateVersion string
	Signature     string
	SHA256        string
	Notes         string
}

// Updater polls a release manifest and stages verified artifacts for the
// running platform.
type Updater struct {
	Endpoint       string
	PubKey         string
	StageDir       string
	CurrentVersion string
	Platform       string
	Client         *http.Client
	MaxSize        int64

	mu     sync.Mutex
	staged string
}

func NewUpdater(cfg config.UpdateConfig) *Updater {
	return &Updater{
		Endpoint:       cfg.Endpoint,
		PubKey:         cfg.PubKey,
		StageDir:       UpdateStageDir,
		CurrentVersion: version.Version,
		Platform:       manifest.PlatformKey(runtime.GOOS, runtime.GOARCH),
		Client:         http.DefaultClient,
	}
}

func (u *Updater) userAgent() string {
	return fmt.Sprintf("focus/%s (%s %s) Go/%s", u.CurrentVersion, runtime.GOARCH, runtime.GOOS, runtime.Version())
}

func (u *Updater) client() *http.Client {
	if u.Client != nil {
		return u.Client
	}
	return http.DefaultClient
}

func (u *Updater) maxSize() int64 {
	if u.MaxSize > 0 {
		return u.MaxSize
	}
	return DefaultMaxUpdateSize
}

// Staged returns the path of the last verified download, if any.
func (u *Updater) Staged() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.staged
}

// IsNewReleaseAvailable reports whether the manifest advertises a version
// newer than the running one with an artifact for this platform.
func (u *Updater) IsNewReleaseAvailable(ctx context.Context) (bool, UpdateResponse) {
	var updateResp UpdateResponse

	if _, err := url.ParseRequestURI(u.Endpoint); err != nil {
		slog.Warn("invalid update endpoint", "endpoint", u.Endpoint, "error", err)
		return false, updateResp
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.Endpoint, nil)
	if err != nil {
		slog.Warn("failed to check for update", "error", err)
		return false, updateResp
	}
	req.Header.Set("User-Agent", u.userAgent())

	slog.Debug("checking for available update", "requestURL", u.Endpoint)
	resp, err := u.client().Do(req)
	if err != nil {
		slog.Warn("failed to check for update", "error", err)
		return false, updateResp
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		slog.Debug("check update response 204 (current version is up to date)")
		return false, updateResp
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Info("check update error", "status_code", resp.StatusCode, "body", string(body))
		return false, updateResp
	}

	m, err := manifest.Decode(resp.Body)
	if err != nil {
		slog.Warn("malformed response checking for update", "error", err)
		return false, updateResp
	}

	latest, err := semver.NewVersion(m.Version)
	if err != nil {
		slog.Warn("malformed version in update manifest", "version", m.Version, "error", err)
		return false, updateResp
	}
	current, err := semver.NewVersion(u.CurrentVersion)
	if err != nil {
		slog.Warn("running version is not semver, skipping update check", "version", u.CurrentVersion, "error", err)
		return false, updateResp
	}
	if !latest.GreaterThan(current) {
		slog.Debug("current version is up to date", "current", current, "latest", latest)
		return false, updateResp
	}

	p, ok := m.Lookup(u.Platform)
	if !ok {
		slog.Info("update has no artifact for this platform", "platform", u.Platform, "version", m.Version)
		return false, updateResp
	}
	if _, err := url.ParseRequestURI(p.URL); err != nil {
		slog.Warn("malformed response checking for update", "error", fmt.Sprintf("update URL is not a valid URL: %s", err))
		return false, updateResp
	}

	updateResp = UpdateResponse{
		UpdateURL:     p.URL,
		UpdateVersion: latest.String(),
		Signature:     p.Signature,
		SHA256:        p.SHA256,
		Notes:         m.Notes,
	}
	slog.Info("New update available at " + updateResp.UpdateURL)
	return true, updateResp
}

// DownloadNewRelease stages the artifact under StageDir/<etag>/<name> and
// verifies it. A file that fails verification is removed.
func (u *Updater) DownloadNewRelease(ctx context.Context, updateResp UpdateResponse) (string, error) {
	// Do a head first to check etag info
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, updateResp.UpdateURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", u.userAgent())

	resp, err := u.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("error checking update: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status attempting to download update %d", resp.StatusCode)
	}

	filename := artifactName(updateResp.UpdateURL)
	stageFilename := filepath.Join(u.StageDir, etagDir(resp.Header), filename)

	// Check to see if we already have it downloaded
	if data, err := os.ReadFile(stageFilename); err == nil {
		if err := u.verify(data, updateResp); err == nil {
			slog.Info("update already downloaded")
			u.setStaged(stageFilename)
			return stageFilename, nil
		}
		slog.Warn("staged update failed verification, downloading again", "path", stageFilename)
	}

	u.cleanupOldDownloads()

	req.Method = http.MethodGet
	resp, err = u.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading update: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status attempting to download update %d", resp.StatusCode)
	}

	stageFilename = filepath.Join(u.StageDir, etagDir(resp.Header), filename)
	if err := os.MkdirAll(filepath.Dir(stageFilename), 0o755); err != nil {
		return "", fmt.Errorf("create update dir %s: %w", filepath.Dir(stageFilename), err)
	}

	limit := u.maxSize()
	if resp.ContentLength > limit {
		return "", fmt.Errorf("%w: %d bytes", ErrUpdateTooLarge, resp.ContentLength)
	}
	// minisign verifies the whole payload at once, so it is held in memory
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read update from %s: %w", updateResp.UpdateURL, err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrUpdateTooLarge, limit)
	}
	if err := u.verify(data, updateResp); err != nil {
		return "", err
	}
	if err := os.WriteFile(stageFilename, data, 0o644); err != nil {
		// Clean up partially written file on error
		os.Remove(stageFilename)
		return "", fmt.Errorf("failed to write update to %s: %w", stageFilename, err)
	}
	slog.Info("new update downloaded " + stageFilename)

	u.setStaged(stageFilename)
	return stageFilename, nil
}

func (u *Updater) verify(data []byte, updateResp UpdateResponse) error {
	if err := verifyChecksum(data, updateResp.SHA256); err != nil {
		return err
	}
	return verifySignature(data, u.PubKey, updateResp.Signature)
}

func (u *Updater) setStaged(p string) {
	u.mu.Lock()
	u.staged = p
	u.mu.Unlock()
}

func (u *Updater) cleanupOldDownloads() {
	files, err := os.ReadDir(u.StageDir)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		// Expected behavior on first run
		return
	} else if err != nil {
		slog.Warn("failed to list stage dir", "error", err)
		return
	}
	for _, file := range files {
		fullname := filepath.Join(u.StageDir, file.Name())
		slog.Debug("cleaning up old download: " + fullname)
		if err := os.RemoveAll(fullname); err != nil {
			slog.Warn("failed to cleanup stale update download", "error", err)
		}
	}
}

// StartBackgroundUpdaterChecker runs one check after initialDelay and then
// every interval until ctx is done. cb receives the version of each staged
// update. The returned channel is closed when the checker exits.
func (u *Updater) StartBackgroundUpdaterChecker(ctx context.Context, initialDelay, interval time.Duration, cb func(string) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		// Don't blast an update message immediately after startup
		wait := initialDelay
		for {
			select {
			case <-ctx.Done():
				slog.Debug("stopping background update checker")
				return
			case <-time.After(wait):
			}
			wait = interval

			available, resp := u.IsNewReleaseAvailable(ctx)
			if !available {
				continue
			}
			if _, err := u.DownloadNewRelease(ctx, resp); err != nil {
				slog.Error("failed to download new release", "error", err)
				continue
			}
			if err := cb(resp.UpdateVersion); err != nil {
				slog.Warn("failed to register update available with tray", "error", err)
			}
		}
	}()
	return done
}

func etagDir(h http.Header) string {
	etag := strings.Trim(h.Get("etag"), "\"")
	if etag == "" || strings.ContainsAny(etag, `/\`) || etag == ".." {
		slog.Debug("no usable etag detected, falling back to filename based dedup")
		return "_"
	}
	return etag
}

func artifactName(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		if name := path.Base(parsed.Path); name != "." && name != "/" {
			return name
		}
	}
	return Installer
}
