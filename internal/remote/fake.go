package remote

import (
	"sync"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Events contains all device events that were published.
	Events []Event

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// PublishError, if set, is returned by Publish and PublishSystem.
	PublishError error

	// Connected controls IsConnected.
	Connected bool

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// Publish records the device event.
func (f *FakePublisher) Publish(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Events = append(f.Events, event)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// IsConnected reports the configured connectivity.
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// EventCount returns how many device events were published.
func (f *FakePublisher) EventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Events)
}

// AllEvents returns a copy of the published device events, safe to inspect
// while devices are still publishing.
func (f *FakePublisher) AllEvents() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.Events))
	copy(out, f.Events)
	return out
}

// fakeClient is an in-process loopback broker: published messages are
// delivered synchronously to matching subscribers, and retained messages
// replay on subscribe. Used to test the publisher and pin factory without a
// broker.
type fakeClient struct {
	mu        sync.Mutex
	connected bool
	retained  map[string][]byte
	subs      map[string][]func(topic string, payload []byte)

	// Published records every publish in order.
	Published []bufferedMsg
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connected: true,
		retained:  make(map[string][]byte),
		subs:      make(map[string][]func(string, []byte)),
	}
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	f.Published = append(f.Published, bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
	if retained {
		f.retained[topic] = payload
	}
	handlers := append([]func(string, []byte){}, f.subs[topic]...)
	f.mu.Unlock()

	for _, h := range handlers {
		h(topic, payload)
	}
	return nil
}

func (f *fakeClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	f.mu.Lock()
	f.subs[topic] = append(f.subs[topic], handler)
	retained, ok := f.retained[topic]
	f.mu.Unlock()

	if ok {
		handler(topic, retained)
	}
	return nil
}

func (f *fakeClient) Unsubscribe(topic string) error {
	f.mu.Lock()
	delete(f.subs, topic)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

func (f *fakeClient) Disconnect() {
	f.setConnected(false)
}

func (f *fakeClient) published(topic string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, m := range f.Published {
		if m.topic == topic {
			out = append(out, m.payload)
		}
	}
	return out
}
