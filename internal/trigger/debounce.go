// Package trigger turns raw pin samples into stable, edge-triggered device
// events: debounce, windowed smoothing, activation dispatch and hold timers.
// Everything here is driven by the caller's sampling loop; nothing in this
// package spawns goroutines except HoldTracker's timer.
//
// All time comes from an injected clock so behavior is testable without
// real sleeps.
package trigger

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/gpiodev/internal/diag"
)

// Debouncer accepts a raw state change only after it has persisted
// uninterrupted for the bounce duration. A reversal during the wait discards
// the pending change; a later re-flip restarts timing from the re-flip.
//
// Not safe for concurrent use; call Update from one sampling goroutine.
type Debouncer struct {
	bounce time.Duration
	clk    clock.Clock

	stable       bool
	pending      bool
	pendingSince time.Time
	hasPending   bool
}

// NewDebouncer creates a Debouncer with the given initial stable state.
// A zero bounce disables debouncing: every raw sample is accepted as-is.
func NewDebouncer(bounce time.Duration, initial bool, clk clock.Clock) (*Debouncer, error) {
	if bounce < 0 {
		return nil, fmt.Errorf("trigger: negative bounce time %v: %w", bounce, diag.ErrInvalidConfig)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Debouncer{bounce: bounce, clk: clk, stable: initial}, nil
}

// Update feeds one raw sample and returns the stable state.
func (d *Debouncer) Update(raw bool) bool {
	if d.bounce == 0 {
		d.stable = raw
		return d.stable
	}

	if raw == d.stable {
		// Reversal back to the stable state discards any pending change.
		d.hasPending = false
		return d.stable
	}

	now := d.clk.Now()
	if !d.hasPending || raw != d.pending {
		d.pending = raw
		d.pendingSince = now
		d.hasPending = true
		return d.stable
	}

	if now.Sub(d.pendingSince) >= d.bounce {
		d.stable = raw
		d.hasPending = false
	}
	return d.stable
}

// Stable returns the current stable state without feeding a sample.
func (d *Debouncer) Stable() bool {
	return d.stable
}
