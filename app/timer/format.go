package timer

import (
	"fmt"
	"strings"
)

// Preset is a focus session followed by a rest, bound to Cmd+<Key> in the UI.
type Preset struct {
	Key          string `json:"key"`
	FocusMinutes int    `json:"focusMinutes"`
	RestMinutes  int    `json:"restMinutes"`
}

var Presets = []Preset{
	{Key: "1", FocusMinutes: 5, RestMinutes: 5},
	{Key: "2", FocusMinutes: 15, RestMinutes: 5},
	{Key: "3", FocusMinutes: 30, RestMinutes: 5},
	{Key: "4", FocusMinutes: 60, RestMinutes: 5},
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatShort renders seconds as e.g. "1h 2m 3s", omitting zero units.
func FormatShort(seconds int) string {
	return format(seconds, func(n int, unit string) string {
		return fmt.Sprintf("%d%c", n, unit[0])
	})
}

// FormatLong renders seconds as e.g. "1 hour 2 minutes 3 seconds".
func FormatLong(seconds int) string {
	return format(seconds, func(n int, unit string) string {
		if n != 1 {
			unit += "s"
		}
		return fmt.Sprintf("%d %s", n, unit)
	})
}

// FormatTotal renders a minute total as "HH : MM".
func FormatTotal(minutes int) string {
	minutes = max(minutes, 0)
	return fmt.Sprintf("%02d : %02d", minutes/60, minutes%60)
}

func format(seconds int, unit func(n int, name string) string) string {
	if seconds <= 0 {
		return "0s"
	}
	var parts []string
	for _, u := range []struct {
		name string
		size int
	}{{"hour", 3600}, {"minute", 60}, {"second", 1}} {
		if n := seconds / u.size; n > 0 {
			parts = append(parts, unit(n, u.name))
			seconds %= u.size
		}
	}
	return strings.Join(parts, " ")
}
