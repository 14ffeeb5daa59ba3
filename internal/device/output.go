package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/sweeney/gpiodev/internal/diag"
	"github.com/sweeney/gpiodev/internal/pin"
	"github.com/sweeney/gpiodev/internal/source"
)

// OutputConfig configures an output device.
type OutputConfig struct {
	// Name identifies the device in diagnostics.
	Name string

	// ActiveLow inverts polarity: writing 1 drives the pin low.
	ActiveLow bool

	// Initial is the logical value driven on construction.
	Initial float64
}

// Output is an output device: a pin sink whose value can be set directly or
// driven continuously from a producer through a pump. At most one pump runs
// at a time; replacing the source stops the old pump before the new one can
// write.
type Output struct {
	name      string
	p         pin.Pin
	clk       clock.Clock
	reporter  diag.Reporter
	activeLow bool

	mu     sync.Mutex
	closed bool
	value  float64

	// srcMu serializes pump replacement separately from mu: stopping a pump
	// joins its goroutine, which may be blocked writing through SetValue.
	srcMu sync.Mutex
	pump  *source.Pump
}

// NewOutput builds an output over the given pin and drives the initial value.
func NewOutput(p pin.Pin, cfg OutputConfig, clk clock.Clock, reporter diag.Reporter) (*Output, error) {
	if p == nil {
		return nil, fmt.Errorf("device %s: nil pin: %w", cfg.Name, diag.ErrInvalidConfig)
	}
	if cfg.Initial < 0 || cfg.Initial > 1 {
		return nil, fmt.Errorf("device %s: initial value %v outside [0,1]: %w", cfg.Name, cfg.Initial, diag.ErrInvalidConfig)
	}
	if clk == nil {
		clk = clock.New()
	}
	if reporter == nil {
		reporter = diag.Nop()
	}
	d := &Output{
		name:      cfg.Name,
		p:         p,
		clk:       clk,
		reporter:  reporter,
		activeLow: cfg.ActiveLow,
	}
	if err := d.SetValue(cfg.Initial); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the device name.
func (d *Output) Name() string { return d.name }

// SetValue drives the pin to the given logical value. Values outside [0, 1]
// are clamped. Fails with ErrClosed after Close.
func (d *Output) SetValue(v float64) error {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("device %s: %w", d.name, ErrClosed)
	}
	physical := v
	if d.activeLow {
		physical = 1 - v
	}
	if err := d.p.Write(physical); err != nil {
		return fmt.Errorf("device %s: write: %w", d.name, err)
	}
	d.value = v
	return nil
}

// Value returns the last logical value written. Fails with ErrClosed after
// Close.
func (d *Output) Value() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, fmt.Errorf("device %s: %w", d.name, ErrClosed)
	}
	return d.value, nil
}

// On drives the device fully active.
func (d *Output) On() error { return d.SetValue(1) }

// Off drives the device fully inactive.
func (d *Output) Off() error { return d.SetValue(0) }

// Toggle flips between on and off.
func (d *Output) Toggle() error {
	v, err := d.Value()
	if err != nil {
		return err
	}
	if v >= 0.5 {
		return d.Off()
	}
	return d.On()
}

// IsActive reports whether the last written value is on.
func (d *Output) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && d.value >= 0.5
}

// SetSource drives the device from producer at the given interval. Any
// running pump is stopped — and its goroutine joined — before the new pump
// starts, so old and new producers can never race on the pin. A nil producer
// just clears the current source.
func (d *Output) SetSource(producer source.Source, interval time.Duration) error {
	d.srcMu.Lock()
	defer d.srcMu.Unlock()

	if d.pump != nil {
		d.pump.Stop()
		d.pump = nil
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return fmt.Errorf("device %s: %w", d.name, ErrClosed)
	}
	if producer == nil {
		return nil
	}

	pump := source.NewPump(d.name, d.clk, d.reporter)
	if err := pump.Start(producer, d, interval); err != nil {
		return err
	}
	d.pump = pump
	return nil
}

// ClearSource stops and discards any running pump. The device keeps its last
// pumped value. Safe on a device with no source.
func (d *Output) ClearSource() error {
	d.srcMu.Lock()
	defer d.srcMu.Unlock()
	if d.pump != nil {
		d.pump.Stop()
		d.pump = nil
	}
	return nil
}

// SourceRunning reports whether a pump is currently moving values.
func (d *Output) SourceRunning() bool {
	d.srcMu.Lock()
	defer d.srcMu.Unlock()
	return d.pump != nil && d.pump.Running()
}

// Close stops any running pump (joining its goroutine) and closes the pin.
// Idempotent; afterwards all operations fail with ErrClosed.
func (d *Output) Close() error {
	d.srcMu.Lock()
	if d.pump != nil {
		d.pump.Stop()
		d.pump = nil
	}
	d.srcMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	var err error
	if cerr := d.p.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("device %s: close pin: %w", d.name, cerr))
	}
	return err
}
