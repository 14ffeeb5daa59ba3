package pin

import (
	"errors"
	"fmt"
	"sync"
)

// FakePin is a test double. Reads consume Script if set (repeating the last
// entry once exhausted), otherwise return the current state. Writes record
// into Writes and update the state. Safe for concurrent use — sampling loops
// read while tests mutate.
type FakePin struct {
	mu     sync.Mutex
	number int
	state  float64
	script []float64
	index  int

	// Writes contains every value written, in order.
	Writes []float64

	// ReadErr, if set, is returned by Read.
	ReadErr error
	// WriteErr, if set, is returned by Write.
	WriteErr error

	closed bool
}

// NewFakePin creates a FakePin with the given initial state.
func NewFakePin(number int, initial float64) *FakePin {
	return &FakePin{number: number, state: initial}
}

// SetScript installs scripted read values. Each Read consumes the next entry;
// once exhausted the last entry repeats.
func (p *FakePin) SetScript(values ...float64) {
	p.mu.Lock()
	p.script = values
	p.index = 0
	p.mu.Unlock()
}

// Set updates the state returned by Read (when no script is active).
func (p *FakePin) Set(v float64) {
	p.mu.Lock()
	p.state = v
	p.mu.Unlock()
}

// SetReadErr installs (or clears) an error returned by Read. Safe while a
// sampling loop is reading.
func (p *FakePin) SetReadErr(err error) {
	p.mu.Lock()
	p.ReadErr = err
	p.mu.Unlock()
}

// SetWriteErr installs (or clears) an error returned by Write.
func (p *FakePin) SetWriteErr(err error) {
	p.mu.Lock()
	p.WriteErr = err
	p.mu.Unlock()
}

// Read returns the next scripted value, or the current state.
func (p *FakePin) Read() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, fmt.Errorf("pin %d: line closed", p.number)
	}
	if p.ReadErr != nil {
		return 0, p.ReadErr
	}
	if len(p.script) == 0 {
		return p.state, nil
	}
	v := p.script[p.index]
	if p.index < len(p.script)-1 {
		p.index++
	}
	return v, nil
}

// Write records the value and updates the state.
func (p *FakePin) Write(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("pin %d: line closed", p.number)
	}
	if p.WriteErr != nil {
		return p.WriteErr
	}
	p.Writes = append(p.Writes, v)
	p.state = v
	return nil
}

// Close marks the pin closed. Idempotent.
func (p *FakePin) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (p *FakePin) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// State returns the current state (last write, or initial).
func (p *FakePin) State() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// WriteCount returns how many writes have happened.
func (p *FakePin) WriteCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Writes)
}

// LastWrite returns the most recent write, or ok=false if none happened.
func (p *FakePin) LastWrite() (v float64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Writes) == 0 {
		return 0, false
	}
	return p.Writes[len(p.Writes)-1], true
}

// FakeFactory hands out FakePins by number, remembering them so tests can
// inspect pins opened by code under test.
type FakeFactory struct {
	mu     sync.Mutex
	pins   map[int]*FakePin
	closed bool

	// OpenErr, if set, is returned by Open.
	OpenErr error
}

// NewFakeFactory creates an empty FakeFactory.
func NewFakeFactory() *FakeFactory {
	return &FakeFactory{pins: make(map[int]*FakePin)}
}

// Open returns the FakePin for req.Number, creating it on first use.
func (f *FakeFactory) Open(req Request) (Pin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("pin: factory closed")
	}
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	p, ok := f.pins[req.Number]
	if !ok {
		p = NewFakePin(req.Number, req.Initial)
		f.pins[req.Number] = p
	}
	return p, nil
}

// Pin returns the FakePin for a number, or nil if never opened. Tests may
// also call it before Open to pre-seed state.
func (f *FakeFactory) Pin(number int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[number]
	if !ok {
		p = NewFakePin(number, 0)
		f.pins[number] = p
	}
	return p
}

// Close marks the factory closed.
func (f *FakeFactory) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
