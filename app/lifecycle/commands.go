package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ReEnvision-AI/focus/app/power"
	"github.com/ReEnvision-AI/focus/app/store"
	"github.com/ReEnvision-AI/focus/app/timer"
	"github.com/ReEnvision-AI/focus/app/tray/commontray"
	"github.com/ReEnvision-AI/focus/app/window"
	"github.com/ReEnvision-AI/focus/version"
)

const (
	EventTimerState    = "timer:state"
	EventTimerComplete = "timer:complete"
)

type emitter interface {
	Emit(name string, data ...interface{})
}

// App is bound to the frontend. Its exported methods become the commands the
// webview can invoke.
type App struct {
	tray     commontray.FocusTray
	window   *window.Controller
	events   emitter
	timer    *timer.Timer
	shortcut string
	now      func() time.Time

	mu          sync.Mutex
	title       string
	savedTotal  int
	sleepHeld   bool
	setSleeping func(prevent bool) error
}

func NewApp(t commontray.FocusTray, win *window.Controller, events emitter, tm *timer.Timer, shortcutLabel string) *App {
	a := &App{
		tray:        t,
		window:      win,
		events:      events,
		timer:       tm,
		shortcut:    shortcutLabel,
		now:         time.Now,
		savedTotal:  tm.State().TotalMinutes,
		setSleeping: holdSleep,
	}
	tm.Subscribe(a.onTimerState)
	tm.OnComplete(a.onTimerComplete)
	return a
}

func (a *App) Greet(name string) string {
	return fmt.Sprintf("Hello, %s! You've been greeted from Go!", name)
}

// SetTrayTitle sets the tray title. Failures are logged and ignored.
func (a *App) SetTrayTitle(title string) {
	a.setTitle(title)
}

// SetTrayTime shows a countdown next to the tray icon; an empty text clears it.
func (a *App) SetTrayTime(text string) {
	a.setTitle(text)
}

func (a *App) ShowWindow() {
	a.window.Reveal()
}

func (a *App) StartTimer(minutes int, mode string) error {
	return a.timer.Start(minutes, timer.Mode(mode))
}

func (a *App) PauseTimer()  { a.timer.Pause() }
func (a *App) ResumeTimer() { a.timer.Resume() }
func (a *App) ToggleTimer() { a.timer.Toggle() }
func (a *App) CancelTimer() { a.timer.Cancel() }

// SkipRest ends a rest early. It reports false when no rest is running.
func (a *App) SkipRest() bool {
	return a.timer.Skip()
}

// ResetTotal clears today's focused minutes.
func (a *App) ResetTotal() {
	a.timer.Reset()
}

func (a *App) TimerState() timer.State {
	return a.timer.State()
}

func (a *App) Presets() []timer.Preset {
	return timer.Presets
}

func (a *App) ShortcutLabel() string {
	return a.shortcut
}

func (a *App) Version() string {
	return version.Version
}

func (a *App) setTitle(title string) {
	a.mu.Lock()
	if a.title == title {
		a.mu.Unlock()
		return
	}
	a.title = title
	a.mu.Unlock()

	if a.tray == nil {
		return
	}
	if err := a.tray.SetTitle(title); err != nil {
		slog.Debug("failed to set tray title", "error", err)
	}
}

func (a *App) onTimerState(s timer.State) {
	if s.Idle() {
		a.setTitle("")
	} else {
		a.setTitle(timer.FormatClock(s.RemainingSeconds))
	}
	if a.events != nil {
		a.events.Emit(EventTimerState, s)
	}

	a.mu.Lock()
	totalChanged := s.TotalMinutes != a.savedTotal
	a.savedTotal = s.TotalMinutes
	wantHold := s.Mode == timer.ModeFocus && s.Running
	sleepChanged := wantHold != a.sleepHeld
	a.sleepHeld = wantHold
	a.mu.Unlock()

	if totalChanged {
		store.SetTodayMinutes(a.now(), s.TotalMinutes)
	}
	if sleepChanged {
		if err := a.setSleeping(wantHold); err != nil {
			slog.Warn("failed to change system sleep state", "prevent", wantHold, "error", err)
		}
	}
}

func (a *App) onTimerComplete(c timer.Completion) {
	a.window.Reveal()

	var message string
	switch c.Mode {
	case timer.ModeFocus:
		message = fmt.Sprintf("Well done! %s focused, %s today.", timer.FormatShort(c.Minutes*60), timer.FormatShort(c.TotalMinutes*60))
	default:
		message = "Break is over."
	}
	if a.tray != nil {
		if err := a.tray.Notify(commontray.Title, message); err != nil {
			slog.Debug("failed to show completion notification", "error", err)
		}
	}
	if a.events != nil {
		a.events.Emit(EventTimerComplete, c)
	}
}

func holdSleep(prevent bool) error {
	if prevent {
		if err := power.PreventSleep(); err != nil && !errors.Is(err, power.ErrAlreadyPrevented) {
			return err
		}
		return nil
	}
	if err := power.AllowSleep(); err != nil && !errors.Is(err, power.ErrAlreadyAllowed) {
		return err
	}
	return nil
}
