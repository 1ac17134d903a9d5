// Package power keeps the machine awake while a focus session runs.
package power

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Error indicating sleep prevention was requested but already active.
var ErrAlreadyPrevented = errors.New("sleep prevention is already active")

// Error indicating sleep allowance was requested but already allowed.
var ErrAlreadyAllowed = errors.New("sleep is already allowed")

var (
	isSleepPrevented bool
	powerStateMu     sync.Mutex
)

func PreventSleep() error {
	powerStateMu.Lock()
	defer powerStateMu.Unlock()

	if isSleepPrevented {
		return ErrAlreadyPrevented
	}

	if err := preventSleep(); err != nil {
		return fmt.Errorf("failed to prevent sleep/suspend: %w", err)
	}

	slog.Info("System sleep prevention activated")
	isSleepPrevented = true
	return nil
}

func AllowSleep() error {
	powerStateMu.Lock()
	defer powerStateMu.Unlock()

	if !isSleepPrevented {
		return ErrAlreadyAllowed
	}

	err := allowSleep()
	isSleepPrevented = false
	if err != nil {
		return fmt.Errorf("failed to explicitly allow sleep/suspend: %w", err)
	}

	slog.Info("System sleep prevention deactivated")
	return nil
}

// SleepPrevented reports whether PreventSleep is in effect.
func SleepPrevented() bool {
	powerStateMu.Lock()
	defer powerStateMu.Unlock()
	return isSleepPrevented
}
