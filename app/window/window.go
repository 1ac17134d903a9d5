// Package window drives the main window's show, hide and focus behavior.
package window

import (
	"log/slog"
)

// Window is the subset of the host window the tray, shortcut and commands need.
type Window interface {
	Show() error
	Hide() error
	Unminimise() error
	Focus() error
	IsVisible() (bool, error)
}

// Controller applies the reveal/toggle rules to the main window. A nil window
// means the main window does not exist and every call is a no-op.
type Controller struct {
	win Window
}

func NewController(win Window) *Controller {
	return &Controller{win: win}
}

// Reveal unminimises, shows and focuses the window. Failures are logged and
// the remaining steps still run.
func (c *Controller) Reveal() {
	if c == nil || c.win == nil {
		return
	}
	if err := c.win.Unminimise(); err != nil {
		slog.Debug("failed to unminimise window", "error", err)
	}
	if err := c.win.Show(); err != nil {
		slog.Debug("failed to show window", "error", err)
	}
	if err := c.win.Focus(); err != nil {
		slog.Debug("failed to focus window", "error", err)
	}
}

// Toggle hides a visible window and reveals a hidden one. When visibility
// cannot be read the window is revealed.
func (c *Controller) Toggle() {
	if c == nil || c.win == nil {
		return
	}
	visible, err := c.win.IsVisible()
	switch {
	case err != nil:
		slog.Warn("failed to read window visibility, forcing show", "error", err)
		c.Reveal()
	case visible:
		if err := c.win.Hide(); err != nil {
			slog.Debug("failed to hide window", "error", err)
		}
	default:
		c.Reveal()
	}
}

// Hide hides the window, ignoring failure.
func (c *Controller) Hide() {
	if c == nil || c.win == nil {
		return
	}
	if err := c.win.Hide(); err != nil {
		slog.Debug("failed to hide window", "error", err)
	}
}
