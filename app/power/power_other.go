//go:build !windows

package power

// Only the bookkeeping is kept on these platforms; the OS is not asked to
// stay awake.
func preventSleep() error { return nil }

func allowSleep() error { return nil }
