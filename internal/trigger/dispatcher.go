package trigger

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/gpiodev/internal/diag"
)

// Callback is a user event handler. Callbacks run synchronously on the
// sampling goroutine; long-running work belongs on the user's own goroutine.
type Callback func()

// Dispatcher is an edge-triggered state machine over a boolean activation
// signal. Callbacks fire exactly once per transition, never on repeated
// identical samples — downstream device logic depends on that.
//
// Update must be called from a single sampling goroutine. Everything else is
// safe to call from any goroutine.
type Dispatcher struct {
	clk      clock.Clock
	reporter diag.Reporter
	origin   string

	mu            sync.Mutex
	active        bool
	activatedAt   time.Time
	deactivatedAt time.Time
	onActivate    Callback
	onDeactivate  Callback
	changed       chan struct{} // closed and replaced on every transition
}

// NewDispatcher creates a Dispatcher in the inactive state.
func NewDispatcher(origin string, clk clock.Clock, reporter diag.Reporter) *Dispatcher {
	if clk == nil {
		clk = clock.New()
	}
	if reporter == nil {
		reporter = diag.Nop()
	}
	return &Dispatcher{
		clk:      clk,
		reporter: reporter,
		origin:   origin,
		changed:  make(chan struct{}),
	}
}

// Update feeds one activation sample. It returns true if a transition
// occurred. The matching callback, if set, has already run by the time
// Update returns.
func (e *Dispatcher) Update(active bool) bool {
	e.mu.Lock()
	if active == e.active {
		e.mu.Unlock()
		return false
	}
	e.active = active
	now := e.clk.Now()
	var cb Callback
	if active {
		e.activatedAt = now
		cb = e.onActivate
	} else {
		e.deactivatedAt = now
		cb = e.onDeactivate
	}
	close(e.changed)
	e.changed = make(chan struct{})
	e.mu.Unlock()

	if cb != nil {
		e.invoke(cb)
	}
	return true
}

// invoke runs a callback, converting a panic into a diagnostic. The sampling
// loop must keep running past a faulty handler.
func (e *Dispatcher) invoke(cb Callback) {
	defer func() {
		if r := recover(); r != nil {
			e.reporter.Report(diag.Diagnostic{
				Kind:   diag.KindCallbackFault,
				Origin: e.origin,
				Err:    fmt.Errorf("callback panic: %v", r),
			})
		}
	}()
	cb()
}

// Active returns the current activation state.
func (e *Dispatcher) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// ActivatedAt returns when the dispatcher last became active, ok=false if it
// never has.
func (e *Dispatcher) ActivatedAt() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activatedAt, !e.activatedAt.IsZero()
}

// DeactivatedAt returns when the dispatcher last became inactive, ok=false if
// it never has.
func (e *Dispatcher) DeactivatedAt() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deactivatedAt, !e.deactivatedAt.IsZero()
}

// SetOnActivate installs the activation callback. Passing nil clears it;
// clearing a previously-set callback is valid but surfaced as a diagnostic,
// since an accidental overwrite is a classic silent failure.
func (e *Dispatcher) SetOnActivate(cb Callback) {
	e.setCallback(&e.onActivate, cb, "activate")
}

// SetOnDeactivate installs the deactivation callback. Nil clears it.
func (e *Dispatcher) SetOnDeactivate(cb Callback) {
	e.setCallback(&e.onDeactivate, cb, "deactivate")
}

func (e *Dispatcher) setCallback(slot *Callback, cb Callback, name string) {
	e.mu.Lock()
	hadPrev := *slot != nil
	*slot = cb
	e.mu.Unlock()
	if cb == nil && hadPrev {
		e.reporter.Report(diag.Diagnostic{
			Kind:   diag.KindCallbackCleared,
			Origin: e.origin,
			Detail: name,
		})
	}
}

// Detach clears both callbacks without emitting cleared-callback
// diagnostics. For device teardown, where detaching is expected.
func (e *Dispatcher) Detach() {
	e.mu.Lock()
	e.onActivate = nil
	e.onDeactivate = nil
	e.mu.Unlock()
}

// WaitForActive blocks until the dispatcher becomes active or the timeout
// elapses, returning true in the former case. A timeout <= 0 waits forever.
// If already active, returns immediately. Only the calling goroutine blocks.
func (e *Dispatcher) WaitForActive(timeout time.Duration) bool {
	return e.waitFor(true, timeout)
}

// WaitForInactive is the inactive counterpart of WaitForActive.
func (e *Dispatcher) WaitForInactive(timeout time.Duration) bool {
	return e.waitFor(false, timeout)
}

func (e *Dispatcher) waitFor(want bool, timeout time.Duration) bool {
	var expired <-chan time.Time
	if timeout > 0 {
		t := e.clk.Timer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		e.mu.Lock()
		if e.active == want {
			e.mu.Unlock()
			return true
		}
		ch := e.changed
		e.mu.Unlock()

		select {
		case <-ch:
			// Transition happened; loop to re-check which direction.
		case <-expired:
			return false
		}
	}
}
