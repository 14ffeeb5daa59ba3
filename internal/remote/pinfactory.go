package remote

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/sweeney/gpiodev/internal/pin"
)

// PinFactory is a pin.Factory whose pins live behind an MQTT broker: writes
// publish retained state to gpiodev/pin/<n>/state and reads return the last
// state received on that topic. The process actually driving the hardware
// subscribes to the same topics. Latency is broker round-trip, so this suits
// sampling cadences in the tens of milliseconds, not microsecond bit-banging.
type PinFactory struct {
	prefix string

	mu     sync.Mutex
	c      client
	closed bool
}

// NewPinFactory connects to the broker. prefix defaults to "gpiodev".
func NewPinFactory(broker, prefix string) (*PinFactory, error) {
	if prefix == "" {
		prefix = "gpiodev"
	}
	c, err := dial(broker, "gpiodev-pins", nil)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	return &PinFactory{prefix: prefix, c: c}, nil
}

// newPinFactoryWithClient wires an arbitrary client, for tests.
func newPinFactoryWithClient(c client, prefix string) *PinFactory {
	if prefix == "" {
		prefix = "gpiodev"
	}
	return &PinFactory{prefix: prefix, c: c}
}

// Open subscribes to the pin's state topic and returns the remote pin.
func (f *PinFactory) Open(req pin.Request) (pin.Pin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, fmt.Errorf("remote: factory closed")
	}

	p := &remotePin{
		c:      f.c,
		topic:  stateTopic(f.prefix, req.Number),
		number: req.Number,
	}
	// Retained state, if any, arrives immediately after subscribing.
	if err := f.c.Subscribe(p.topic, 1, p.onState); err != nil {
		return nil, fmt.Errorf("remote: subscribe pin %d: %w", req.Number, err)
	}
	if req.Mode == pin.ModeOutput {
		if err := p.Write(req.Initial); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Close disconnects from the broker.
func (f *PinFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.c.Disconnect()
	return nil
}

// remotePin mirrors one pin's retained state topic.
type remotePin struct {
	c      client
	topic  string
	number int

	mu     sync.Mutex
	state  float64
	closed bool
}

// onState updates the mirrored state from an incoming message. Unparseable
// payloads are ignored; the previous state stands.
func (p *remotePin) onState(_ string, payload []byte) {
	v, err := strconv.ParseFloat(string(payload), 64)
	if err != nil || v < 0 || v > 1 {
		return
	}
	p.mu.Lock()
	p.state = v
	p.mu.Unlock()
}

// Read returns the last state received from the broker.
func (p *remotePin) Read() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, fmt.Errorf("remote: pin %d closed", p.number)
	}
	return p.state, nil
}

// Write publishes the new state, retained so late subscribers see it.
func (p *remotePin) Write(v float64) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("remote: pin %d closed", p.number)
	}
	p.state = v
	p.mu.Unlock()

	payload := strconv.FormatFloat(v, 'g', -1, 64)
	if err := p.c.Publish(p.topic, 1, true, []byte(payload)); err != nil {
		return fmt.Errorf("remote: write pin %d: %w", p.number, err)
	}
	return nil
}

// Close unsubscribes from the state topic. Idempotent.
func (p *remotePin) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	if err := p.c.Unsubscribe(p.topic); err != nil {
		return fmt.Errorf("remote: close pin %d: %w", p.number, err)
	}
	return nil
}
