// Package device composes pins with the trigger and source engines into
// usable devices. An input device owns a sampling goroutine feeding
// debounce/smoothing into an event dispatcher; an output device owns at most
// one value pump. Components are never shared across devices.
package device

import (
	"errors"
	"time"

	"github.com/sweeney/gpiodev/internal/source"
	"github.com/sweeney/gpiodev/internal/trigger"
)

// ErrClosed is returned by any operation on a closed device. Reads after
// close fail rather than returning stale data.
var ErrClosed = errors.New("device: closed")

// ValueReader is anything with a readable scalar value.
type ValueReader interface {
	Value() (float64, error)
}

// Eventer is a device that detects activation edges.
type Eventer interface {
	// IsActive reports the current debounced/smoothed activation state.
	IsActive() bool

	// SetWhenActivated installs the activation callback; nil clears it.
	SetWhenActivated(cb trigger.Callback)

	// SetWhenDeactivated installs the deactivation callback; nil clears it.
	SetWhenDeactivated(cb trigger.Callback)

	// WaitForActive blocks until activation or timeout (<= 0 waits forever),
	// returning true on activation.
	WaitForActive(timeout time.Duration) bool

	// WaitForInactive is the deactivation counterpart.
	WaitForInactive(timeout time.Duration) bool
}

// Holder is an Eventer that also tracks sustained activation.
type Holder interface {
	Eventer

	// SetWhenHeld installs the held callback. Fails on devices configured
	// without a hold time.
	SetWhenHeld(cb trigger.Callback) error

	// IsHeld reports whether the current activation has lasted the hold time.
	IsHeld() bool
}

// Sourced is a device whose value can be driven from a producer sequence.
type Sourced interface {
	// SetSource pumps values from producer at the given interval, replacing
	// any running pump atomically (the old pump is fully stopped before the
	// new one starts).
	SetSource(producer source.Source, interval time.Duration) error

	// ClearSource stops and discards any running pump.
	ClearSource() error
}
