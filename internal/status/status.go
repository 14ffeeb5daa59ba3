// Package status provides a thread-safe tracker of device state for the
// gpiomon daemon. It is read by HTTP handlers while the sampling loops write.
package status

import (
	"sort"
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs   int64
	BounceMs int64
	Broker   string
	HTTPAddr string
}

// DeviceStatus is the tracked state of one device.
type DeviceStatus struct {
	Name   string
	Kind   string // e.g. "button", "motion", "led"
	Active bool
	Value  float64

	// Transition counters since startup.
	Activations   int
	Deactivations int
	Holds         int
}

// Snapshot is a point-in-time view of daemon state. A value type — safe to
// use after the lock is released.
type Snapshot struct {
	Devices       []DeviceStatus // sorted by name
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Device returns the status for a name, ok=false if unknown.
func (s Snapshot) Device(name string) (DeviceStatus, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceStatus{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	devices       map[string]*DeviceStatus
	startTime     time.Time
	mqttConnected bool
	config        Config
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		devices:   make(map[string]*DeviceStatus),
		startTime: startTime,
		config:    cfg,
	}
}

// Register adds a device to track. Called once per device at startup.
func (t *Tracker) Register(name, kind string) {
	t.mu.Lock()
	t.devices[name] = &DeviceStatus{Name: name, Kind: kind}
	t.mu.Unlock()
}

// Update sets a device's current activation state and value.
func (t *Tracker) Update(name string, active bool, value float64) {
	t.mu.Lock()
	if d, ok := t.devices[name]; ok {
		d.Active = active
		d.Value = value
	}
	t.mu.Unlock()
}

// CountActivation increments a device's activation counter.
func (t *Tracker) CountActivation(name string) { t.count(name, func(d *DeviceStatus) { d.Activations++ }) }

// CountDeactivation increments a device's deactivation counter.
func (t *Tracker) CountDeactivation(name string) {
	t.count(name, func(d *DeviceStatus) { d.Deactivations++ })
}

// CountHold increments a device's hold counter.
func (t *Tracker) CountHold(name string) { t.count(name, func(d *DeviceStatus) { d.Holds++ }) }

func (t *Tracker) count(name string, f func(*DeviceStatus)) {
	t.mu.Lock()
	if d, ok := t.devices[name]; ok {
		f(d)
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the broker connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state. The Now field
// is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	devices := make([]DeviceStatus, 0, len(t.devices))
	for _, d := range t.devices {
		devices = append(devices, *d)
	}
	snap := Snapshot{
		Devices:       devices,
		StartTime:     t.startTime,
		MQTTConnected: t.mqttConnected,
		Config:        t.config,
	}
	t.mu.RUnlock()

	sort.Slice(snap.Devices, func(i, j int) bool { return snap.Devices[i].Name < snap.Devices[j].Name })
	snap.Now = time.Now()
	return snap
}
