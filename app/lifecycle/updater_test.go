package lifecycle

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReEnvision-AI/focus/internal/manifest"
)

// signer produces minisign keys and signatures in the base64 wrapped form
// release manifests carry.
type signer struct {
	id  [8]byte
	pub ed25519.PublicKey
	key ed25519.PrivateKey
}

func newSigner(t *testing.T) *signer {
	t.Helper()
	pub, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	s := &signer{pub: pub, key: key}
	_, err = rand.Read(s.id[:])
	require.NoError(t, err)
	return s
}

func (s *signer) publicKey() string {
	raw := append([]byte("Ed"), s.id[:]...)
	raw = append(raw, s.pub...)
	text := "untrusted comment: minisign public key\n" + base64.StdEncoding.EncodeToString(raw) + "\n"
	return base64.StdEncoding.EncodeToString([]byte(text))
}

func (s *signer) sign(data []byte) string {
	sig := ed25519.Sign(s.key, data)
	raw := append([]byte("Ed"), s.id[:]...)
	raw = append(raw, sig...)
	trusted := "timestamp:1700000000\tfile:focus.app.tar.gz"
	global := ed25519.Sign(s.key, append(append([]byte{}, sig...), []byte(trusted)...))
	text := fmt.Sprintf("untrusted comment: signature from tauri secret key\n%s\ntrusted comment: %s\n%s\n",
		base64.StdEncoding.EncodeToString(raw), trusted, base64.StdEncoding.EncodeToString(global))
	return base64.StdEncoding.EncodeToString([]byte(text))
}

type releaseServer struct {
	*httptest.Server
	manifest  manifest.Manifest
	artifact  []byte
	etag      string
	downloads atomic.Int32
	checks    atomic.Int32
}

func newReleaseServer(t *testing.T, s *signer, ver string) *releaseServer {
	t.Helper()
	rs := &releaseServer{artifact: []byte("focus release payload"), etag: `"abc123"`}
	sum := sha256.Sum256(rs.artifact)

	mux := http.NewServeMux()
	mux.HandleFunc("/latest.json", func(w http.ResponseWriter, r *http.Request) {
		rs.checks.Add(1)
		_ = json.NewEncoder(w).Encode(rs.manifest)
	})
	mux.HandleFunc("/Focus_aarch64.app.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", rs.etag)
		if r.Method == http.MethodGet {
			rs.downloads.Add(1)
			_, _ = w.Write(rs.artifact)
		}
	})
	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)

	rs.manifest = manifest.Manifest{
		Version: ver,
		PubDate: "2024-01-01T00:00:00.000Z",
		Platforms: map[string]manifest.Platform{
			"darwin-aarch64": {
				URL:       rs.URL + "/Focus_aarch64.app.tar.gz",
				Signature: s.sign(rs.artifact),
				SHA256:    hex.EncodeToString(sum[:]),
			},
		},
	}
	return rs
}

func newTestUpdater(t *testing.T, rs *releaseServer, s *signer) *Updater {
	return &Updater{
		Endpoint:       rs.URL + "/latest.json",
		PubKey:         s.publicKey(),
		StageDir:       t.TempDir(),
		CurrentVersion: "1.0.0",
		Platform:       "darwin-aarch64",
		Client:         rs.Client(),
	}
}

func TestIsNewReleaseAvailable(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)

	ok, resp := u.IsNewReleaseAvailable(context.Background())
	require.True(t, ok)
	assert.Equal(t, "1.2.0", resp.UpdateVersion)
	assert.Equal(t, rs.URL+"/Focus_aarch64.app.tar.gz", resp.UpdateURL)
}

func TestIsNewReleaseAvailableUpToDate(t *testing.T) {
	s := newSigner(t)
	for _, ver := range []string{"1.0.0", "0.9.9"} {
		rs := newReleaseServer(t, s, ver)
		ok, _ := newTestUpdater(t, rs, s).IsNewReleaseAvailable(context.Background())
		assert.False(t, ok, "version %s", ver)
	}
}

func TestIsNewReleaseAvailableMissingPlatform(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "2.0.0")
	u := newTestUpdater(t, rs, s)
	u.Platform = "linux-x86_64"

	ok, _ := u.IsNewReleaseAvailable(context.Background())
	assert.False(t, ok)
}

func TestIsNewReleaseAvailableServerErrors(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		u := &Updater{Endpoint: srv.URL, CurrentVersion: "1.0.0", Client: srv.Client()}
		ok, _ := u.IsNewReleaseAvailable(context.Background())
		assert.False(t, ok, "status %d", status)
		srv.Close()
	}

	u := &Updater{Endpoint: "not a url", CurrentVersion: "1.0.0"}
	ok, _ := u.IsNewReleaseAvailable(context.Background())
	assert.False(t, ok)
}

func TestIsNewReleaseAvailableSendsUserAgent(t *testing.T) {
	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.UserAgent())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	u := &Updater{Endpoint: srv.URL, CurrentVersion: "1.0.0", Client: srv.Client()}
	u.IsNewReleaseAvailable(context.Background())
	assert.Contains(t, agent.Load(), "focus/1.0.0")
}

func TestDownloadNewRelease(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)

	ok, resp := u.IsNewReleaseAvailable(context.Background())
	require.True(t, ok)

	staged, err := u.DownloadNewRelease(context.Background(), resp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(u.StageDir, "abc123", "Focus_aarch64.app.tar.gz"), staged)
	assert.Equal(t, staged, u.Staged())

	data, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, rs.artifact, data)

	// same etag, no second download
	_, err = u.DownloadNewRelease(context.Background(), resp)
	require.NoError(t, err)
	assert.Equal(t, int32(1), rs.downloads.Load())
}

func TestDownloadNewReleaseReplacesOldStage(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)
	_, resp := u.IsNewReleaseAvailable(context.Background())

	first, err := u.DownloadNewRelease(context.Background(), resp)
	require.NoError(t, err)

	rs.etag = `"def456"`
	second, err := u.DownloadNewRelease(context.Background(), resp)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NoFileExists(t, first)
	assert.FileExists(t, second)
}

func TestDownloadNewReleaseRejectsBadChecksum(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)
	_, resp := u.IsNewReleaseAvailable(context.Background())
	resp.SHA256 = hex.EncodeToString(make([]byte, 32))

	_, err := u.DownloadNewRelease(context.Background(), resp)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Empty(t, u.Staged())
}

func TestDownloadNewReleaseRejectsBadSignature(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)
	_, resp := u.IsNewReleaseAvailable(context.Background())
	resp.Signature = s.sign([]byte("something else"))

	_, err := u.DownloadNewRelease(context.Background(), resp)
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.NoFileExists(t, filepath.Join(u.StageDir, "abc123", "Focus_aarch64.app.tar.gz"))
}

func TestDownloadNewReleaseRequiresPublicKey(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)
	u.PubKey = ""
	_, resp := u.IsNewReleaseAvailable(context.Background())

	_, err := u.DownloadNewRelease(context.Background(), resp)
	assert.ErrorIs(t, err, ErrNoPublicKey)
}

func TestVerifySignatureAcceptsRawMinisignText(t *testing.T) {
	s := newSigner(t)
	data := []byte("payload")

	rawSig, err := base64.StdEncoding.DecodeString(s.sign(data))
	require.NoError(t, err)
	rawKey, err := base64.StdEncoding.DecodeString(s.publicKey())
	require.NoError(t, err)

	assert.NoError(t, verifySignature(data, string(rawKey), string(rawSig)))
	assert.NoError(t, verifySignature(data, lastLine(string(rawKey)), s.sign(data)))
}

func TestStartBackgroundUpdaterChecker(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)

	ctx, cancel := context.WithCancel(context.Background())
	versions := make(chan string, 4)
	done := u.StartBackgroundUpdaterChecker(ctx, time.Millisecond, time.Hour, func(ver string) error {
		versions <- ver
		return nil
	})

	select {
	case ver := <-versions:
		assert.Equal(t, "1.2.0", ver)
	case <-time.After(5 * time.Second):
		t.Fatal("expected update callback")
	}
	assert.NotEmpty(t, u.Staged())

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("update checker did not stop")
	}
	assert.Equal(t, int32(1), rs.checks.Load())
}

func TestStartBackgroundUpdaterCheckerStopsDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	u := &Updater{}
	done := u.StartBackgroundUpdaterChecker(ctx, time.Hour, time.Hour, func(string) error {
		t.Error("callback should not run")
		return nil
	})
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("update checker did not stop")
	}
}

func TestDoUpgradeWithoutStage(t *testing.T) {
	assert.Error(t, DoUpgrade(""))
	assert.Error(t, DoUpgrade(filepath.Join(t.TempDir(), "missing.msi")))
}

func TestEtagDir(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "_", etagDir(h))
	h.Set("ETag", `"v1"`)
	assert.Equal(t, "v1", etagDir(h))
	h.Set("ETag", `"../escape"`)
	assert.Equal(t, "_", etagDir(h))
}

func TestDownloadNewReleaseEnforcesSizeLimit(t *testing.T) {
	s := newSigner(t)
	rs := newReleaseServer(t, s, "1.2.0")
	u := newTestUpdater(t, rs, s)
	u.MaxSize = 4
	_, resp := u.IsNewReleaseAvailable(context.Background())

	_, err := u.DownloadNewRelease(context.Background(), resp)
	assert.ErrorIs(t, err, ErrUpdateTooLarge)
	assert.Empty(t, u.Staged())
}

func TestDownloadNewReleaseLimitWithoutContentLength(t *testing.T) {
	s := newSigner(t)
	payload := []byte("streamed payload without a length")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.(http.Flusher).Flush()
			_, _ = w.Write(payload)
		}
	}))
	defer srv.Close()

	u := &Updater{PubKey: s.publicKey(), StageDir: t.TempDir(), Client: srv.Client(), MaxSize: 8}
	_, err := u.DownloadNewRelease(context.Background(), UpdateResponse{
		UpdateURL: srv.URL + "/Focus.msi",
		Signature: s.sign(payload),
	})
	assert.ErrorIs(t, err, ErrUpdateTooLarge)
}
