// Package pin provides the GPIO pin abstraction the device layer is built on.
// The real implementation uses the Linux GPIO character device; the fake
// implementation allows testing without hardware.
//
// Pin state is a scalar in [0, 1]. Plain digital lines only ever report 0 or
// 1, but the contract is scalar so PWM-capable backends and the value-pump
// machinery share one type.
package pin

import (
	"fmt"

	"github.com/sweeney/gpiodev/internal/diag"
)

// Mode selects the direction a pin is opened with.
type Mode int

const (
	// ModeInput opens the pin for reading.
	ModeInput Mode = iota
	// ModeOutput opens the pin for writing.
	ModeOutput
)

// Pull selects the bias applied to an input pin.
type Pull int

const (
	// PullNone leaves the line floating.
	PullNone Pull = iota
	// PullUp enables the internal pull-up.
	PullUp
	// PullDown enables the internal pull-down.
	PullDown
)

// Request describes a pin to open.
type Request struct {
	// Number is the BCM line number.
	Number int
	Mode   Mode
	// Pull applies to input pins only.
	Pull Pull
	// Initial is the state an output pin is driven to on open.
	Initial float64
}

// Validate checks the request for nonsensical combinations.
func (r Request) Validate() error {
	if r.Number < 0 {
		return fmt.Errorf("pin %d: negative pin number: %w", r.Number, diag.ErrInvalidConfig)
	}
	if r.Initial < 0 || r.Initial > 1 {
		return fmt.Errorf("pin %d: initial state %v outside [0,1]: %w", r.Number, r.Initial, diag.ErrInvalidConfig)
	}
	if r.Mode == ModeOutput && r.Pull != PullNone {
		return fmt.Errorf("pin %d: pull bias on an output pin: %w", r.Number, diag.ErrInvalidConfig)
	}
	return nil
}

// Pin is a single GPIO line. Read and Write must be safe to call repeatedly
// from one dedicated goroutine at sampling/pump cadence; cross-goroutine
// locking is the implementation's concern.
type Pin interface {
	// Read returns the current state in [0, 1].
	Read() (float64, error)

	// Write drives the pin to the given state.
	Write(v float64) error

	// Close releases the line. Close is idempotent.
	Close() error
}

// Factory opens pins for a particular backend (local chip, remote broker,
// fake). Which backend to construct is the caller's decision.
type Factory interface {
	// Open acquires the requested line.
	Open(req Request) (Pin, error)

	// Close releases backend resources. Pins opened from the factory should
	// be closed first.
	Close() error
}
