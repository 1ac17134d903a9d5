package timer

import "testing"

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{25 * 60, "00:25:00"},
		{3723, "01:02:03"},
		{-5, "00:00:00"},
	}
	for _, test := range tests {
		if got := FormatClock(test.seconds); got != test.expected {
			t.Errorf("FormatClock(%d) = %q, expected %q", test.seconds, got, test.expected)
		}
	}
}

func TestFormatShortAndLong(t *testing.T) {
	tests := []struct {
		seconds     int
		short, long string
	}{
		{0, "0s", "0s"},
		{1, "1s", "1 second"},
		{60, "1m", "1 minute"},
		{3723, "1h 2m 3s", "1 hour 2 minutes 3 seconds"},
		{7200, "2h", "2 hours"},
	}
	for _, test := range tests {
		if got := FormatShort(test.seconds); got != test.short {
			t.Errorf("FormatShort(%d) = %q, expected %q", test.seconds, got, test.short)
		}
		if got := FormatLong(test.seconds); got != test.long {
			t.Errorf("FormatLong(%d) = %q, expected %q", test.seconds, got, test.long)
		}
	}
}

func TestFormatTotal(t *testing.T) {
	if got := FormatTotal(125); got != "02 : 05" {
		t.Errorf("FormatTotal(125) = %q", got)
	}
}

func TestPresetsFollowFocusWithRest(t *testing.T) {
	for _, p := range Presets {
		if p.FocusMinutes <= 0 || p.RestMinutes != 5 {
			t.Errorf("unexpected preset %+v", p)
		}
	}
}
