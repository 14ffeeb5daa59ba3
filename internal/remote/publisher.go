package remote

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// bufferCapacity bounds how many events are held while disconnected.
const bufferCapacity = 256

// BrokerPublisher publishes device events to an MQTT broker, buffering while
// the connection is down and replaying on reconnect.
type BrokerPublisher struct {
	log *zap.Logger

	mu     sync.Mutex
	c      client
	buffer *ringBuffer
}

// NewBrokerPublisher connects to the broker.
func NewBrokerPublisher(broker string, log *zap.Logger) (*BrokerPublisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &BrokerPublisher{
		log:    log,
		buffer: newRingBuffer(bufferCapacity),
	}
	c, err := dial(broker, "gpiomon", p.drain)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	p.mu.Lock()
	p.c = c
	p.mu.Unlock()
	return p, nil
}

// newPublisherWithClient wires an arbitrary client, for tests.
func newPublisherWithClient(c client, log *zap.Logger) *BrokerPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &BrokerPublisher{log: log, c: c, buffer: newRingBuffer(bufferCapacity)}
}

// Publish sends a device event at QoS 0, buffering it if disconnected.
func (p *BrokerPublisher) Publish(event Event) error {
	payload, err := FormatEvent(event)
	if err != nil {
		return fmt.Errorf("format event: %w", err)
	}
	return p.send(bufferedMsg{topic: TopicEvents, payload: payload, qos: 0})
}

// PublishSystem sends a lifecycle event at QoS 1 — delivery matters for
// shutdown notifications.
func (p *BrokerPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystem(event)
	if err != nil {
		return fmt.Errorf("format system event: %w", err)
	}
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *BrokerPublisher) send(msg bufferedMsg) error {
	p.mu.Lock()
	c := p.c
	if c == nil || !c.IsConnected() {
		p.buffer.push(msg)
		n := p.buffer.len()
		p.mu.Unlock()
		p.log.Debug("broker disconnected, buffered message", zap.Int("buffered", n))
		return nil
	}
	p.mu.Unlock()

	return c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
}

// drain replays buffered messages after a reconnect.
func (p *BrokerPublisher) drain() {
	p.mu.Lock()
	c := p.c
	msgs, dropped := p.buffer.drainAll()
	p.mu.Unlock()

	if dropped > 0 {
		p.log.Warn("dropped buffered messages while disconnected", zap.Int("dropped", dropped))
	}
	if c == nil {
		return
	}
	for _, msg := range msgs {
		if err := c.Publish(msg.topic, msg.qos, msg.retained, msg.payload); err != nil {
			p.log.Warn("replay failed", zap.String("topic", msg.topic), zap.Error(err))
		}
	}
	if len(msgs) > 0 {
		p.log.Info("replayed buffered messages", zap.Int("count", len(msgs)))
	}
}

// IsConnected reports broker connectivity.
func (p *BrokerPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.c != nil && p.c.IsConnected()
}

// Close disconnects from the broker.
func (p *BrokerPublisher) Close() error {
	p.mu.Lock()
	c := p.c
	p.c = nil
	p.mu.Unlock()
	if c != nil {
		c.Disconnect()
	}
	return nil
}
