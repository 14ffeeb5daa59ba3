package trigger

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/gpiodev/internal/diag"
)

// HoldTracker extends Dispatcher with a repeating "held" timer: once active
// for holdTime, the held callback fires; with repeat enabled it keeps firing
// every holdTime until deactivation. Deactivation before expiry cancels the
// timer with no call.
//
// The timer runs on its own goroutine because holdTime is typically seconds
// while sampling runs at millisecond cadence. Close joins it.
type HoldTracker struct {
	*Dispatcher
	holdTime   time.Duration
	holdRepeat bool

	mu     sync.Mutex
	onHeld Callback
	held   bool
	cancel chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewHoldTracker creates a HoldTracker in the inactive state.
func NewHoldTracker(origin string, holdTime time.Duration, holdRepeat bool, clk clock.Clock, reporter diag.Reporter) (*HoldTracker, error) {
	if holdTime <= 0 {
		return nil, fmt.Errorf("trigger: hold time %v must be positive: %w", holdTime, diag.ErrInvalidConfig)
	}
	return &HoldTracker{
		Dispatcher: NewDispatcher(origin, clk, reporter),
		holdTime:   holdTime,
		holdRepeat: holdRepeat,
	}, nil
}

// Update feeds one activation sample, arming the hold timer on activation and
// cancelling it on deactivation.
func (h *HoldTracker) Update(active bool) bool {
	changed := h.Dispatcher.Update(active)
	if !changed {
		return false
	}
	if active {
		h.arm()
	} else {
		h.disarm()
	}
	return true
}

func (h *HoldTracker) arm() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.cancel != nil {
		return
	}
	cancel := make(chan struct{})
	h.cancel = cancel
	h.held = false
	h.wg.Add(1)
	go h.run(cancel)
}

func (h *HoldTracker) disarm() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		close(h.cancel)
		h.cancel = nil
	}
	h.held = false
}

func (h *HoldTracker) run(cancel chan struct{}) {
	defer h.wg.Done()
	for {
		t := h.clk.Timer(h.holdTime)
		select {
		case <-cancel:
			t.Stop()
			return
		case <-t.C:
			if !h.fire(cancel) {
				return
			}
		}
	}
}

// fire invokes the held callback if the tracker is still active, and reports
// whether the timer should re-arm.
func (h *HoldTracker) fire(cancel chan struct{}) bool {
	// Deactivation may have raced the timer; the held callback must never
	// fire after the matching deactivation.
	select {
	case <-cancel:
		return false
	default:
	}
	if !h.Active() {
		return false
	}

	h.mu.Lock()
	h.held = true
	cb := h.onHeld
	h.mu.Unlock()

	if cb != nil {
		h.invoke(cb)
	}
	return h.holdRepeat
}

// SetOnHeld installs the held callback. Nil clears it, surfaced as a
// diagnostic like the dispatcher's callback slots.
func (h *HoldTracker) SetOnHeld(cb Callback) {
	h.mu.Lock()
	hadPrev := h.onHeld != nil
	h.onHeld = cb
	h.mu.Unlock()
	if cb == nil && hadPrev {
		h.reporter.Report(diag.Diagnostic{
			Kind:   diag.KindCallbackCleared,
			Origin: h.origin,
			Detail: "held",
		})
	}
}

// IsHeld reports whether the current activation has lasted at least holdTime.
func (h *HoldTracker) IsHeld() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}

// Detach clears the held callback and the dispatcher's callbacks without
// emitting cleared-callback diagnostics.
func (h *HoldTracker) Detach() {
	h.mu.Lock()
	h.onHeld = nil
	h.mu.Unlock()
	h.Dispatcher.Detach()
}

// Close cancels any armed timer and waits for the timer goroutine to finish.
// The tracker cannot be re-armed afterwards.
func (h *HoldTracker) Close() {
	h.mu.Lock()
	h.closed = true
	if h.cancel != nil {
		close(h.cancel)
		h.cancel = nil
	}
	h.mu.Unlock()
	h.wg.Wait()
}
