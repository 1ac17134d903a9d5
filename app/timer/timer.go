package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Mode string

const (
	ModeSelect Mode = "select"
	ModeFocus  Mode = "focus"
	ModeRest   Mode = "rest"
)

var (
	ErrInvalidMode     = errors.New("timer mode must be focus or rest")
	ErrInvalidDuration = errors.New("timer minutes must be positive")
)

// State is the snapshot published to subscribers after every change.
type State struct {
	Mode             Mode `json:"mode"`
	Running          bool `json:"running"`
	RunningMinutes   int  `json:"runningMinutes"`
	RemainingSeconds int  `json:"remainingSeconds"`
	TotalMinutes     int  `json:"totalMinutes"`
}

// Idle reports whether no session is active.
func (s State) Idle() bool {
	return s.Mode == ModeSelect
}

// Completion describes a session that ran down to zero.
type Completion struct {
	Mode         Mode `json:"mode"`
	Minutes      int  `json:"minutes"`
	TotalMinutes int  `json:"totalMinutes"`
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct{ t *time.Ticker }

func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }
func (r realTicker) C() <-chan time.Time           { return r.t.C }
func (r realTicker) Stop()                         { r.t.Stop() }

// Timer runs one focus or rest countdown at a time and keeps the running total
// of focused minutes.
type Timer struct {
	clock Clock

	// pubMu is held from a change until its subscribers return, so states
	// are delivered in the order they were made. Subscribers must not call
	// methods that change the timer.
	pubMu sync.Mutex

	mu          sync.Mutex
	state       State
	stop        chan struct{}
	wg          sync.WaitGroup
	subscribers []func(State)
	onComplete  []func(Completion)
}

type Option func(*Timer)

// WithClock replaces the wall clock ticker, mostly for tests.
func WithClock(c Clock) Option {
	return func(t *Timer) { t.clock = c }
}

// WithTotal seeds the focused minute total, e.g. from today's stored value.
func WithTotal(minutes int) Option {
	return func(t *Timer) { t.state.TotalMinutes = max(minutes, 0) }
}

func New(opts ...Option) *Timer {
	t := &Timer{
		clock: realClock{},
		state: State{Mode: ModeSelect},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers fn to receive every state change. Callbacks run on the
// goroutine that caused the change, outside the timer lock.
func (t *Timer) Subscribe(fn func(State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

func (t *Timer) OnComplete(fn func(Completion)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onComplete = append(t.onComplete, fn)
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins a new session, replacing any session in progress.
func (t *Timer) Start(minutes int, mode Mode) error {
	if mode != ModeFocus && mode != ModeRest {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if minutes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, minutes)
	}

	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	t.mu.Lock()
	t.haltLocked()
	t.state.Mode = mode
	t.state.RunningMinutes = minutes
	t.state.RemainingSeconds = minutes * 60
	t.state.Running = true
	t.runLocked()
	snap, subs := t.snapshotLocked()
	t.mu.Unlock()

	slog.Info("timer started", "mode", mode, "minutes", minutes)
	publish(subs, snap)
	return nil
}

func (t *Timer) Pause() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	t.mu.Lock()
	if t.state.Idle() || !t.state.Running {
		t.mu.Unlock()
		return
	}
	t.haltLocked()
	t.state.Running = false
	snap, subs := t.snapshotLocked()
	t.mu.Unlock()

	slog.Debug("timer paused", "remaining", snap.RemainingSeconds)
	publish(subs, snap)
}

func (t *Timer) Resume() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	t.mu.Lock()
	if t.state.Idle() || t.state.Running {
		t.mu.Unlock()
		return
	}
	t.state.Running = true
	t.runLocked()
	snap, subs := t.snapshotLocked()
	t.mu.Unlock()

	slog.Debug("timer resumed", "remaining", snap.RemainingSeconds)
	publish(subs, snap)
}

// Toggle pauses a running session or resumes a paused one.
func (t *Timer) Toggle() {
	if t.State().Running {
		t.Pause()
	} else {
		t.Resume()
	}
}

// Cancel abandons the session. Whole minutes already spent focusing are kept.
func (t *Timer) Cancel() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	t.mu.Lock()
	if t.state.Idle() {
		t.mu.Unlock()
		return
	}
	if t.state.Mode == ModeFocus {
		focused := t.state.RunningMinutes - t.state.RemainingSeconds/60
		t.state.TotalMinutes += max(focused, 0)
	}
	t.haltLocked()
	t.resetLocked()
	snap, subs := t.snapshotLocked()
	t.mu.Unlock()

	slog.Info("timer cancelled", "total", snap.TotalMinutes)
	publish(subs, snap)
}

// Skip ends a rest early. It reports false when no rest is in progress.
func (t *Timer) Skip() bool {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	t.mu.Lock()
	if t.state.Mode != ModeRest {
		t.mu.Unlock()
		return false
	}
	t.haltLocked()
	t.resetLocked()
	snap, subs := t.snapshotLocked()
	t.mu.Unlock()

	publish(subs, snap)
	return true
}

// Reset clears the focused minute total.
func (t *Timer) Reset() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	t.mu.Lock()
	t.state.TotalMinutes = 0
	snap, subs := t.snapshotLocked()
	t.mu.Unlock()

	publish(subs, snap)
}

// Close stops the countdown goroutine, if any, and waits for it to exit.
func (t *Timer) Close() {
	t.mu.Lock()
	t.haltLocked()
	t.mu.Unlock()
	t.wg.Wait()
}

func (t *Timer) runLocked() {
	stop := make(chan struct{})
	t.stop = stop
	ticker := t.clock.NewTicker(time.Second)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				if done := t.tick(stop); done {
					return
				}
			}
		}
	}()
}

// haltLocked signals the countdown goroutine to exit. It does not wait, since
// the goroutine may be blocked on t.mu.
func (t *Timer) haltLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) tick(stop chan struct{}) bool {
	done, completions, ok := t.advance(stop)
	if ok {
		for _, fn := range completions {
			fn(done)
		}
	}
	return ok || t.stopped(stop)
}

func (t *Timer) stopped(stop chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != stop
}

// advance counts down one second. It reports whether the session completed,
// along with the completion callbacks to run once delivery is finished.
func (t *Timer) advance(stop chan struct{}) (Completion, []func(Completion), bool) {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.mu.Lock()
	if t.stop != stop {
		// superseded by Pause/Start/Cancel while waiting for the lock
		t.mu.Unlock()
		return Completion{}, nil, false
	}

	t.state.RemainingSeconds = max(t.state.RemainingSeconds-1, 0)
	if t.state.RemainingSeconds > 0 {
		snap, subs := t.snapshotLocked()
		t.mu.Unlock()
		publish(subs, snap)
		return Completion{}, nil, false
	}

	done := Completion{Mode: t.state.Mode, Minutes: t.state.RunningMinutes}
	if t.state.Mode == ModeFocus {
		t.state.TotalMinutes += t.state.RunningMinutes
	}
	done.TotalMinutes = t.state.TotalMinutes
	t.haltLocked()
	t.resetLocked()
	snap, subs := t.snapshotLocked()
	completions := append([]func(Completion){}, t.onComplete...)
	t.mu.Unlock()

	slog.Info("timer completed", "mode", done.Mode, "minutes", done.Minutes, "total", done.TotalMinutes)
	publish(subs, snap)
	return done, completions, true
}

func (t *Timer) resetLocked() {
	t.state.Mode = ModeSelect
	t.state.Running = false
	t.state.RunningMinutes = 0
	t.state.RemainingSeconds = 0
}

func (t *Timer) snapshotLocked() (State, []func(State)) {
	return t.state, append([]func(State){}, t.subscribers...)
}

func publish(subs []func(State), s State) {
	for _, fn := range subs {
		fn(s)
	}
}
