package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/gpiodev/internal/diag"
	"github.com/sweeney/gpiodev/internal/pin"
	"github.com/sweeney/gpiodev/internal/trigger"
)

// DefaultThreshold is the per-sample activation threshold applied when a
// config leaves it zero. 0.5 is the conventional default, not a law — every
// constructor accepts an explicit value.
const DefaultThreshold = 0.5

// InputConfig configures a debounced digital input.
type InputConfig struct {
	// Name identifies the device in diagnostics.
	Name string

	// Poll is the sampling interval. Must be positive.
	Poll time.Duration

	// Bounce is the minimum duration a raw flip must persist before being
	// accepted. Zero disables debouncing.
	Bounce time.Duration

	// ActiveLow inverts polarity: a low pin reads as active. Used with
	// pull-up wiring (buttons to ground).
	ActiveLow bool

	// Threshold converts a scalar pin sample to a boolean: active when the
	// sample is >= Threshold. Zero means DefaultThreshold.
	Threshold float64

	// HoldTime enables hold tracking when positive: the held callback fires
	// once activation has persisted this long.
	HoldTime time.Duration

	// HoldRepeat re-fires the held callback every HoldTime while active.
	HoldRepeat bool
}

// SmoothedConfig configures a smoothed input (noisy sensors).
type SmoothedConfig struct {
	Name string
	Poll time.Duration

	// QueueLen is the rolling window capacity. Must be positive.
	QueueLen int

	// WindowThreshold is the fraction of active samples required for
	// activation. Zero means DefaultThreshold.
	WindowThreshold float64

	// Partial allows activation before the window has filled once.
	Partial bool

	ActiveLow bool

	// Threshold is the per-sample scalar threshold. Zero means
	// DefaultThreshold.
	Threshold float64
}

// Input is a digital input device: a pin, a sampling goroutine, an optional
// debouncer or smoothing window, an event dispatcher and an optional hold
// tracker. All components are exclusively owned.
type Input struct {
	name      string
	p         pin.Pin
	clk       clock.Clock
	reporter  diag.Reporter
	poll      time.Duration
	threshold float64
	activeLow bool

	deb      *trigger.Debouncer
	smoother *trigger.Smoother
	disp     *trigger.Dispatcher
	hold     *trigger.HoldTracker

	mu       sync.Mutex
	closed   bool
	lastRaw  float64
	cancel   chan struct{}
	sampling sync.WaitGroup
}

// NewInput builds a debounced input over the given pin and starts its
// sampling loop. The pin is read once up front to seed the stable state.
func NewInput(p pin.Pin, cfg InputConfig, clk clock.Clock, reporter diag.Reporter) (*Input, error) {
	d, err := newInput(p, cfg.Name, cfg.Poll, cfg.Threshold, cfg.ActiveLow, clk, reporter)
	if err != nil {
		return nil, err
	}

	initial, err := d.readActive()
	if err != nil {
		return nil, fmt.Errorf("device %s: initial read: %w", d.name, err)
	}

	d.deb, err = trigger.NewDebouncer(cfg.Bounce, initial, d.clk)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", d.name, err)
	}

	if cfg.HoldTime < 0 {
		return nil, fmt.Errorf("device %s: negative hold time %v: %w", d.name, cfg.HoldTime, diag.ErrInvalidConfig)
	}
	if cfg.HoldTime > 0 {
		d.hold, err = trigger.NewHoldTracker(d.name, cfg.HoldTime, cfg.HoldRepeat, d.clk, d.reporter)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", d.name, err)
		}
		d.disp = d.hold.Dispatcher
	} else {
		d.disp = trigger.NewDispatcher(d.name, d.clk, d.reporter)
	}

	// Seed the dispatcher before any callbacks can be attached, so the
	// initial state never fires an event.
	d.update(initial)

	d.start()
	return d, nil
}

// NewSmoothedInput builds a smoothed input over the given pin and starts its
// sampling loop.
func NewSmoothedInput(p pin.Pin, cfg SmoothedConfig, clk clock.Clock, reporter diag.Reporter) (*Input, error) {
	d, err := newInput(p, cfg.Name, cfg.Poll, cfg.Threshold, cfg.ActiveLow, clk, reporter)
	if err != nil {
		return nil, err
	}

	windowThreshold := cfg.WindowThreshold
	if windowThreshold == 0 {
		windowThreshold = DefaultThreshold
	}
	d.smoother, err = trigger.NewSmoother(cfg.QueueLen, windowThreshold, cfg.Partial)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", d.name, err)
	}
	d.disp = trigger.NewDispatcher(d.name, d.clk, d.reporter)

	d.start()
	return d, nil
}

func newInput(p pin.Pin, name string, poll time.Duration, threshold float64, activeLow bool, clk clock.Clock, reporter diag.Reporter) (*Input, error) {
	if p == nil {
		return nil, fmt.Errorf("device %s: nil pin: %w", name, diag.ErrInvalidConfig)
	}
	if poll <= 0 {
		return nil, fmt.Errorf("device %s: poll interval %v must be positive: %w", name, poll, diag.ErrInvalidConfig)
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("device %s: threshold %v outside [0,1]: %w", name, threshold, diag.ErrInvalidConfig)
	}
	if clk == nil {
		clk = clock.New()
	}
	if reporter == nil {
		reporter = diag.Nop()
	}
	return &Input{
		name:      name,
		p:         p,
		clk:       clk,
		reporter:  reporter,
		poll:      poll,
		threshold: threshold,
		activeLow: activeLow,
		cancel:    make(chan struct{}),
	}, nil
}

func (d *Input) start() {
	d.sampling.Add(1)
	go d.loop()
}

func (d *Input) loop() {
	defer d.sampling.Done()
	t := d.clk.Ticker(d.poll)
	defer t.Stop()
	for {
		select {
		case <-d.cancel:
			return
		case <-t.C:
			d.sample()
		}
	}
}

// sample takes one reading and pushes it through the pipeline. A read error
// is reported and the sample skipped; the loop keeps going.
func (d *Input) sample() {
	raw, err := d.p.Read()
	if err != nil {
		d.reporter.Report(diag.Diagnostic{
			Kind:   diag.KindWarning,
			Origin: d.name,
			Err:    fmt.Errorf("pin read: %w", err),
		})
		return
	}

	d.mu.Lock()
	d.lastRaw = raw
	d.mu.Unlock()

	active := d.toActive(raw)
	switch {
	case d.smoother != nil:
		d.smoother.Add(active)
		active = d.smoother.Active()
	case d.deb != nil:
		active = d.deb.Update(active)
	}
	d.update(active)
}

func (d *Input) update(active bool) {
	if d.hold != nil {
		d.hold.Update(active)
		return
	}
	d.disp.Update(active)
}

func (d *Input) readActive() (bool, error) {
	raw, err := d.p.Read()
	if err != nil {
		return false, err
	}
	d.lastRaw = raw
	return d.toActive(raw), nil
}

func (d *Input) toActive(raw float64) bool {
	active := raw >= d.threshold
	if d.activeLow {
		active = !active
	}
	return active
}

// Name returns the device name.
func (d *Input) Name() string { return d.name }

// Value returns the logical value: 1 when active, 0 when not, independent of
// wiring polarity. Fails with ErrClosed after Close.
func (d *Input) Value() (float64, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return 0, fmt.Errorf("device %s: %w", d.name, ErrClosed)
	}
	if d.disp.Active() {
		return 1, nil
	}
	return 0, nil
}

// RawValue returns the last raw pin sample. Fails with ErrClosed after Close.
func (d *Input) RawValue() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, fmt.Errorf("device %s: %w", d.name, ErrClosed)
	}
	return d.lastRaw, nil
}

// IsActive reports the current activation state.
func (d *Input) IsActive() bool {
	return d.disp.Active()
}

// SetWhenActivated installs the activation callback; nil clears it.
func (d *Input) SetWhenActivated(cb trigger.Callback) {
	d.disp.SetOnActivate(cb)
}

// SetWhenDeactivated installs the deactivation callback; nil clears it.
func (d *Input) SetWhenDeactivated(cb trigger.Callback) {
	d.disp.SetOnDeactivate(cb)
}

// SetWhenHeld installs the held callback. Fails unless the input was built
// with a hold time.
func (d *Input) SetWhenHeld(cb trigger.Callback) error {
	if d.hold == nil {
		return fmt.Errorf("device %s: no hold time configured: %w", d.name, diag.ErrInvalidConfig)
	}
	d.hold.SetOnHeld(cb)
	return nil
}

// IsHeld reports whether the current activation has lasted the hold time.
// Always false on inputs without hold tracking.
func (d *Input) IsHeld() bool {
	if d.hold == nil {
		return false
	}
	return d.hold.IsHeld()
}

// WaitForActive blocks until activation or timeout (<= 0 waits forever).
func (d *Input) WaitForActive(timeout time.Duration) bool {
	return d.disp.WaitForActive(timeout)
}

// WaitForInactive blocks until deactivation or timeout (<= 0 waits forever).
func (d *Input) WaitForInactive(timeout time.Duration) bool {
	return d.disp.WaitForInactive(timeout)
}

// Close stops the sampling loop and hold timer (joining both goroutines),
// detaches callbacks, and closes the pin. Idempotent; afterwards all reads
// fail with ErrClosed.
func (d *Input) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	close(d.cancel)
	d.sampling.Wait()

	if d.hold != nil {
		d.hold.Detach()
		d.hold.Close()
	} else {
		d.disp.Detach()
	}

	if err := d.p.Close(); err != nil {
		return fmt.Errorf("device %s: close pin: %w", d.name, err)
	}
	return nil
}
