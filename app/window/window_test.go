package window

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockWindow struct {
	visible bool
	visErr  error
	showErr error
	calls   []string
}

func (m *mockWindow) Show() error {
	m.calls = append(m.calls, "show")
	if m.showErr != nil {
		return m.showErr
	}
	m.visible = true
	return nil
}

func (m *mockWindow) Hide() error {
	m.calls = append(m.calls, "hide")
	m.visible = false
	return nil
}

func (m *mockWindow) Unminimise() error {
	m.calls = append(m.calls, "unminimise")
	return nil
}

func (m *mockWindow) Focus() error {
	m.calls = append(m.calls, "focus")
	return nil
}

func (m *mockWindow) IsVisible() (bool, error) {
	return m.visible, m.visErr
}

func TestRevealOrder(t *testing.T) {
	w := &mockWindow{}
	NewController(w).Reveal()
	assert.Equal(t, []string{"unminimise", "show", "focus"}, w.calls)
	assert.True(t, w.visible)
}

func TestRevealContinuesAfterFailure(t *testing.T) {
	w := &mockWindow{showErr: errors.New("boom")}
	NewController(w).Reveal()
	assert.Equal(t, []string{"unminimise", "show", "focus"}, w.calls)
}

func TestToggleHidesVisibleWindow(t *testing.T) {
	w := &mockWindow{visible: true}
	NewController(w).Toggle()
	assert.Equal(t, []string{"hide"}, w.calls)
	assert.False(t, w.visible)
}

func TestToggleRevealsHiddenWindow(t *testing.T) {
	w := &mockWindow{}
	c := NewController(w)
	c.Toggle()
	assert.Equal(t, []string{"unminimise", "show", "focus"}, w.calls)

	w.calls = nil
	c.Toggle()
	assert.Equal(t, []string{"hide"}, w.calls)
}

func TestToggleForcesShowWhenVisibilityUnknown(t *testing.T) {
	w := &mockWindow{visible: true, visErr: errors.New("no handle")}
	NewController(w).Toggle()
	assert.Equal(t, []string{"unminimise", "show", "focus"}, w.calls)
}

func TestNilWindowIsNoop(t *testing.T) {
	c := NewController(nil)
	c.Reveal()
	c.Toggle()
	c.Hide()

	var nilController *Controller
	nilController.Reveal()
}

func TestWailsBeforeStartup(t *testing.T) {
	w := NewWails(false)

	_, err := w.IsVisible()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, w.Show(), ErrNotStarted)
	assert.ErrorIs(t, w.Hide(), ErrNotStarted)
	w.Emit("timer:state")
}

func TestWailsBeforeCloseWhenQuitting(t *testing.T) {
	w := NewWails(false)
	w.Quit()
	assert.False(t, w.BeforeClose(context.Background()))
}
