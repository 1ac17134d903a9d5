package window

import (
	"context"
	"errors"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

var ErrNotStarted = errors.New("window host has not started")

// Wails adapts the wails runtime to Window. The runtime cannot report whether
// the window is shown, so visibility is tracked from the calls made here and
// from close interception.
type Wails struct {
	mu       sync.Mutex
	ctx      context.Context
	visible  bool
	quitting bool
}

func NewWails(startHidden bool) *Wails {
	return &Wails{visible: !startHidden}
}

// Startup is wired to the host's OnStartup hook.
func (w *Wails) Startup(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = ctx
}

// BeforeClose is wired to OnBeforeClose: closing the window hides it to the
// tray unless the application is quitting.
func (w *Wails) BeforeClose(ctx context.Context) bool {
	w.mu.Lock()
	quitting := w.quitting
	w.mu.Unlock()
	if quitting {
		return false
	}
	_ = w.Hide()
	return true
}

// Quit closes the window for good and stops the host event loop.
func (w *Wails) Quit() {
	w.mu.Lock()
	w.quitting = true
	ctx := w.ctx
	w.mu.Unlock()
	if ctx != nil {
		runtime.Quit(ctx)
	}
}

func (w *Wails) context() (context.Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return nil, ErrNotStarted
	}
	return w.ctx, nil
}

func (w *Wails) Show() error {
	ctx, err := w.context()
	if err != nil {
		return err
	}
	runtime.WindowShow(ctx)
	w.setVisible(true)
	return nil
}

func (w *Wails) Hide() error {
	ctx, err := w.context()
	if err != nil {
		return err
	}
	runtime.WindowHide(ctx)
	w.setVisible(false)
	return nil
}

func (w *Wails) Unminimise() error {
	ctx, err := w.context()
	if err != nil {
		return err
	}
	runtime.WindowUnminimise(ctx)
	return nil
}

// Focus raises the window above other applications.
func (w *Wails) Focus() error {
	ctx, err := w.context()
	if err != nil {
		return err
	}
	runtime.WindowSetAlwaysOnTop(ctx, true)
	runtime.WindowSetAlwaysOnTop(ctx, false)
	return nil
}

func (w *Wails) IsVisible() (bool, error) {
	ctx, err := w.context()
	if err != nil {
		return false, err
	}
	if runtime.WindowIsMinimised(ctx) {
		return false, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible, nil
}

// Emit sends an event to the frontend. It is dropped before startup.
func (w *Wails) Emit(name string, data ...interface{}) {
	ctx, err := w.context()
	if err != nil {
		return
	}
	runtime.EventsEmit(ctx, name, data...)
}

func (w *Wails) setVisible(v bool) {
	w.mu.Lock()
	w.visible = v
	w.mu.Unlock()
}
