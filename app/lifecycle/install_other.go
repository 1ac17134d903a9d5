//go:build !darwin && !windows

package lifecycle

func install(string) error {
	return ErrUnsupported
}
