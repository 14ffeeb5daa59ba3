package device

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/gpiodev/internal/diag"
	"github.com/sweeney/gpiodev/internal/pin"
	"github.com/sweeney/gpiodev/internal/source"
)

// Thin wrappers composing the engine into the common components. Each opens
// its own pin from the factory and reports pin-table warnings; the domain
// semantics (pressed, motion, blink) all come from the primitives above.

// DefaultPoll is the sampling interval catalog devices use when the config
// leaves it zero.
const DefaultPoll = 10 * time.Millisecond

// blinkPumpInterval is the cadence of the pump behind LED.Blink. The square
// source is clock-phase based, so the cadence only bounds edge latency.
const blinkPumpInterval = 10 * time.Millisecond

// ButtonConfig tunes a Button beyond its wiring defaults.
type ButtonConfig struct {
	Poll       time.Duration
	Bounce     time.Duration
	HoldTime   time.Duration
	HoldRepeat bool
}

// Button is a push button wired between the pin and ground: pull-up,
// active-low, optionally debounced and hold-tracked.
type Button struct {
	*Input
}

// NewButton opens the pin and starts the button's sampling loop.
func NewButton(f pin.Factory, number int, cfg ButtonConfig, clk clock.Clock, reporter diag.Reporter) (*Button, error) {
	name := fmt.Sprintf("button-%d", number)
	p, err := openChecked(f, pin.Request{Number: number, Mode: pin.ModeInput, Pull: pin.PullUp}, name, reporter)
	if err != nil {
		return nil, err
	}
	poll := cfg.Poll
	if poll == 0 {
		poll = DefaultPoll
	}
	in, err := NewInput(p, InputConfig{
		Name:       name,
		Poll:       poll,
		Bounce:     cfg.Bounce,
		ActiveLow:  true,
		HoldTime:   cfg.HoldTime,
		HoldRepeat: cfg.HoldRepeat,
	}, clk, reporter)
	if err != nil {
		p.Close()
		return nil, err
	}
	return &Button{Input: in}, nil
}

// IsPressed reports whether the button is currently down.
func (b *Button) IsPressed() bool { return b.IsActive() }

// SetWhenPressed installs the press callback.
func (b *Button) SetWhenPressed(cb func()) { b.SetWhenActivated(cb) }

// SetWhenReleased installs the release callback.
func (b *Button) SetWhenReleased(cb func()) { b.SetWhenDeactivated(cb) }

// WaitForPress blocks until the button is pressed or the timeout elapses.
func (b *Button) WaitForPress(timeout time.Duration) bool { return b.WaitForActive(timeout) }

// MotionSensorConfig tunes a MotionSensor.
type MotionSensorConfig struct {
	Poll     time.Duration
	QueueLen int
	// WindowThreshold is the active fraction required; zero means
	// DefaultThreshold.
	WindowThreshold float64
	Partial         bool
}

// MotionSensor is a PIR-style sensor: pull-down, smoothed over a short
// window. The default single-sample window matches typical PIR modules,
// which hold their output; raise QueueLen for noisy ones.
type MotionSensor struct {
	*Input
}

// NewMotionSensor opens the pin and starts the sensor's sampling loop.
func NewMotionSensor(f pin.Factory, number int, cfg MotionSensorConfig, clk clock.Clock, reporter diag.Reporter) (*MotionSensor, error) {
	name := fmt.Sprintf("motion-%d", number)
	p, err := openChecked(f, pin.Request{Number: number, Mode: pin.ModeInput, Pull: pin.PullDown}, name, reporter)
	if err != nil {
		return nil, err
	}
	poll := cfg.Poll
	if poll == 0 {
		poll = DefaultPoll
	}
	queueLen := cfg.QueueLen
	if queueLen == 0 {
		queueLen = 1
	}
	in, err := NewSmoothedInput(p, SmoothedConfig{
		Name:            name,
		Poll:            poll,
		QueueLen:        queueLen,
		WindowThreshold: cfg.WindowThreshold,
		Partial:         cfg.Partial,
	}, clk, reporter)
	if err != nil {
		p.Close()
		return nil, err
	}
	return &MotionSensor{Input: in}, nil
}

// MotionDetected reports whether the smoothed window says motion.
func (m *MotionSensor) MotionDetected() bool { return m.IsActive() }

// LED is an output device with blinking built on the pump.
type LED struct {
	*Output
	clk clock.Clock
}

// NewLED opens the pin (driven off) as an LED.
func NewLED(f pin.Factory, number int, activeLow bool, clk clock.Clock, reporter diag.Reporter) (*LED, error) {
	name := fmt.Sprintf("led-%d", number)
	p, err := openChecked(f, pin.Request{Number: number, Mode: pin.ModeOutput}, name, reporter)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	out, err := NewOutput(p, OutputConfig{Name: name, ActiveLow: activeLow}, clk, reporter)
	if err != nil {
		p.Close()
		return nil, err
	}
	return &LED{Output: out, clk: clk}, nil
}

// Blink drives the LED on for onTime and off for offTime, repeating until
// the source is cleared or replaced.
func (l *LED) Blink(onTime, offTime time.Duration) error {
	if onTime <= 0 || offTime <= 0 {
		return fmt.Errorf("device %s: blink times must be positive: %w", l.Name(), diag.ErrInvalidConfig)
	}
	return l.SetSource(source.Square(onTime, offTime, l.clk), blinkPumpInterval)
}

func openChecked(f pin.Factory, req pin.Request, name string, reporter diag.Reporter) (pin.Pin, error) {
	if f == nil {
		return nil, fmt.Errorf("device %s: nil factory: %w", name, diag.ErrInvalidConfig)
	}
	warnings, err := pin.CheckRequest(req)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", name, err)
	}
	if reporter != nil {
		for _, w := range warnings {
			reporter.Report(diag.Diagnostic{Kind: diag.KindWarning, Origin: name, Detail: w})
		}
	}
	p, err := f.Open(req)
	if err != nil {
		return nil, fmt.Errorf("device %s: open pin: %w", name, err)
	}
	return p, nil
}
