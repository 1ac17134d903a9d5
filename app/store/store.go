package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const dayLayout = "2006-01-02"

// historyDays bounds how many days of focus totals are kept on disk.
const historyDays = 90

type Store struct {
	ID           string         `json:"id"`
	FirstTimeRun bool           `json:"first-time-run"`
	FocusMinutes map[string]int `json:"focus-minutes,omitempty"`
}

var (
	lock      sync.Mutex
	store     Store
	storePath string
)

// SetPath points the store at a file and drops any state loaded from a
// previous path.
func SetPath(path string) {
	lock.Lock()
	defer lock.Unlock()
	storePath = path
	store = Store{}
}

func GetID() string {
	lock.Lock()
	defer lock.Unlock()
	if store.ID == "" {
		initStore()
	}
	return store.ID
}

func GetFirstTimeRun() bool {
	lock.Lock()
	defer lock.Unlock()
	if store.ID == "" {
		initStore()
	}
	return store.FirstTimeRun
}

func SetFirstTimeRun(val bool) {
	lock.Lock()
	defer lock.Unlock()
	if store.ID == "" {
		initStore()
	}
	if store.FirstTimeRun == val {
		return
	}
	store.FirstTimeRun = val
	writeStore(getStorePath())
}

// TodayMinutes returns the focused minutes recorded for the local day of now.
func TodayMinutes(now time.Time) int {
	lock.Lock()
	defer lock.Unlock()
	if store.ID == "" {
		initStore()
	}
	return store.FocusMinutes[now.Format(dayLayout)]
}

// SetTodayMinutes records the focused minute total for the local day of now.
func SetTodayMinutes(now time.Time, minutes int) {
	lock.Lock()
	defer lock.Unlock()
	if store.ID == "" {
		initStore()
	}
	day := now.Format(dayLayout)
	if cur, ok := store.FocusMinutes[day]; ok && cur == minutes {
		return
	}
	if store.FocusMinutes == nil {
		store.FocusMinutes = make(map[string]int)
	}
	store.FocusMinutes[day] = max(minutes, 0)
	pruneHistory(now)
	writeStore(getStorePath())
}

func pruneHistory(now time.Time) {
	if len(store.FocusMinutes) <= historyDays {
		return
	}
	cutoff := now.AddDate(0, 0, -historyDays).Format(dayLayout)
	days := make([]string, 0, len(store.FocusMinutes))
	for day := range store.FocusMinutes {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		if day >= cutoff {
			break
		}
		delete(store.FocusMinutes, day)
	}
}

func getStorePath() string {
	if storePath != "" {
		return storePath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "Focus", "config.json")
}

func initStore() {
	storePath := getStorePath()
	storeFile, err := os.Open(storePath)
	if err == nil {
		defer storeFile.Close()
		if err = json.NewDecoder(storeFile).Decode(&store); err == nil && store.ID != "" {
			slog.Debug("loaded existing store", "path", storePath, "id", store.ID)
			return
		}
		slog.Warn("failed to decode store file, creating a new one", "path", storePath, "error", err)
		store = Store{}
	} else if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("unexpected error opening store, creating a new one", "path", storePath, "error", err)
	}

	slog.Debug("initializing new store")
	store.ID = uuid.NewString()
	writeStore(storePath)
}

func writeStore(storeFilename string) {
	focusDir := filepath.Dir(storeFilename)
	_, err := os.Stat(focusDir)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(focusDir, 0o755); err != nil {
			slog.Error("failed to create dir", "path", focusDir, "error", err)
			return
		}
	}

	payload, err := json.Marshal(store)
	if err != nil {
		slog.Error("failed to marshal store", "error", err)
		return
	}
	fp, err := os.OpenFile(storeFilename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		slog.Error("failed to write store", "path", storeFilename, "error", err)
		return
	}
	defer fp.Close()
	if n, err := fp.Write(payload); err != nil || n != len(payload) {
		slog.Error("failed to write store payload", "path", storeFilename, "bytes_written", n, "payload_length", len(payload), "error", err)
		return
	}

	slog.Debug("wrote store", "path", storeFilename)
}
