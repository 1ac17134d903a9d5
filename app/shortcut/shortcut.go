// Package shortcut registers OS-level hotkeys that fire regardless of which
// application has focus.
package shortcut

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.design/x/hotkey"
)

var ErrInvalidBinding = errors.New("invalid shortcut binding")

// Binding is a parsed shortcut such as "super+e".
type Binding struct {
	Mods  []hotkey.Modifier
	Key   hotkey.Key
	Label string
}

var keys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space": hotkey.KeySpace,
}

// Parse reads a "+" separated binding: any of super/cmd/win, ctrl, shift,
// alt/option followed by exactly one key.
func Parse(s string) (Binding, error) {
	var (
		b      Binding
		key    string
		labels []string
		seen   = map[hotkey.Modifier]bool{}
	)
	for _, part := range strings.Split(s, "+") {
		tok := strings.ToLower(strings.TrimSpace(part))
		var (
			mod   hotkey.Modifier
			label string
		)
		switch tok {
		case "super", "cmd", "command", "meta", "win":
			mod, label = superModifier, superLabel
		case "ctrl", "control":
			mod, label = hotkey.ModCtrl, "Ctrl"
		case "shift":
			mod, label = hotkey.ModShift, "Shift"
		case "alt", "option":
			mod, label = altModifier, "Alt"
		case "":
			return Binding{}, fmt.Errorf("%w: empty part in %q", ErrInvalidBinding, s)
		default:
			if key != "" {
				return Binding{}, fmt.Errorf("%w: more than one key in %q", ErrInvalidBinding, s)
			}
			k, ok := keys[tok]
			if !ok {
				return Binding{}, fmt.Errorf("%w: unknown key %q", ErrInvalidBinding, tok)
			}
			key, b.Key = tok, k
			continue
		}
		if !seen[mod] {
			seen[mod] = true
			b.Mods = append(b.Mods, mod)
			labels = append(labels, label)
		}
	}
	if key == "" {
		return Binding{}, fmt.Errorf("%w: no key in %q", ErrInvalidBinding, s)
	}
	b.Label = strings.Join(append(labels, strings.ToUpper(key)), " + ")
	return b, nil
}

// Registration is a live hotkey. Unregister releases it.
type Registration struct {
	hk     *hotkey.Hotkey
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Register grabs the binding with the OS and calls handler on every key down
// until ctx is done or Unregister is called.
func Register(ctx context.Context, b Binding, handler func()) (*Registration, error) {
	hk := hotkey.New(b.Mods, b.Key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("failed to register shortcut %s: %w", b.Label, err)
	}
	slog.Info("global shortcut registered", "shortcut", b.Label)

	ctx, cancel := context.WithCancel(ctx)
	r := &Registration{hk: hk, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				handler()
			}
		}
	}()
	go func() {
		<-ctx.Done()
		r.Unregister()
	}()

	return r, nil
}

func (r *Registration) Unregister() {
	r.once.Do(func() {
		r.cancel()
		<-r.done
		if err := r.hk.Unregister(); err != nil {
			slog.Warn("failed to unregister shortcut", "error", err)
		}
	})
}
