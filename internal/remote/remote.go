// Package remote provides the MQTT integrations: publishing device events to
// a broker, and a remote pin factory that moves pin state over MQTT topics
// instead of a local chip. Both sit behind interfaces with fakes for testing.
package remote

import (
	"encoding/json"
	"fmt"
	"time"
)

// TopicEvents is the topic device transition events are published to.
const TopicEvents = "gpiodev/events"

// TopicSystem is the topic for daemon lifecycle events.
const TopicSystem = "gpiodev/system"

// EventKind classifies a device transition.
type EventKind string

const (
	EventActivated   EventKind = "ACTIVATED"
	EventDeactivated EventKind = "DEACTIVATED"
	EventHeld        EventKind = "HELD"
)

// Event is one device transition to publish.
type Event struct {
	Timestamp time.Time
	Device    string
	Kind      EventKind
	Value     float64
}

// SystemEvent is a daemon lifecycle event (startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g. "STARTUP", "SHUTDOWN"
	Reason    string // e.g. "SIGTERM" (shutdown only)
	Retained  bool
}

// Publisher publishes events to a broker. Publish failures are the caller's
// to log; they must never crash the process.
type Publisher interface {
	Publish(event Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// eventPayload is the wire form of an Event.
type eventPayload struct {
	Device deviceEventJSON `json:"device"`
}

type deviceEventJSON struct {
	Timestamp string  `json:"timestamp"`
	Name      string  `json:"name"`
	Event     string  `json:"event"`
	Value     float64 `json:"value"`
}

// FormatEvent creates the JSON payload for a device event.
func FormatEvent(event Event) ([]byte, error) {
	return json.Marshal(eventPayload{
		Device: deviceEventJSON{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Name:      event.Device,
			Event:     string(event.Kind),
			Value:     event.Value,
		},
	})
}

// systemPayload is the wire form of a SystemEvent.
type systemPayload struct {
	System systemEventJSON `json:"system"`
}

type systemEventJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystem creates the JSON payload for a system event.
func FormatSystem(event SystemEvent) ([]byte, error) {
	return json.Marshal(systemPayload{
		System: systemEventJSON{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// stateTopic is the retained topic carrying the state of one remote pin.
func stateTopic(prefix string, number int) string {
	return fmt.Sprintf("%s/pin/%d/state", prefix, number)
}
