//go:build windows

package power

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// Constants for windows sleep
const (
	esAwaymodeRequired uint32 = 0x00000040
	esContinuous       uint32 = 0x80000000
	esSystemRequired   uint32 = 0x00000001
)

var (
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	setThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

func setExecutionState(flags uint32) (uint32, error) {
	previousState, _, callErr := setThreadExecutionState.Call(uintptr(flags))
	if previousState == 0 {
		if callErr != nil && !errors.Is(callErr, windows.ERROR_SUCCESS) {
			return 0, fmt.Errorf("SetThreadExecutionState syscall failed: %w", callErr)
		}
		return 0, errors.New("SetThreadExecutionState failed: returned NULL state")
	}
	return uint32(previousState), nil
}

func preventSleep() error {
	_, err := setExecutionState(esContinuous | esSystemRequired | esAwaymodeRequired)
	return err
}

func allowSleep() error {
	_, err := setExecutionState(esContinuous)
	return err
}
