package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gpiodev/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Devices       []DeviceJSON `json:"devices"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// DeviceJSON is the JSON representation of one device.
type DeviceJSON struct {
	Name          string  `json:"name"`
	Kind          string  `json:"kind"`
	Active        bool    `json:"active"`
	Value         float64 `json:"value"`
	Activations   int     `json:"activations"`
	Deactivations int     `json:"deactivations"`
	Holds         int     `json:"holds,omitempty"`
}

// MQTTStatus reports broker connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs   int64  `json:"poll_ms"`
	BounceMs int64  `json:"bounce_ms"`
	HTTPAddr string `json:"http_addr"`
}

func formatJSON(snap status.Snapshot) []byte {
	devices := make([]DeviceJSON, 0, len(snap.Devices))
	for _, d := range snap.Devices {
		devices = append(devices, DeviceJSON{
			Name:          d.Name,
			Kind:          d.Kind,
			Active:        d.Active,
			Value:         d.Value,
			Activations:   d.Activations,
			Deactivations: d.Deactivations,
			Holds:         d.Holds,
		})
	}
	out := StatusJSON{
		Status: StatusInner{
			Devices:       devices,
			UptimeSeconds: int64(snap.Uptime().Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT: MQTTStatus{
				Connected: snap.MQTTConnected,
				Broker:    snap.Config.Broker,
			},
			Config: ConfigJSON{
				PollMs:   snap.Config.PollMs,
				BounceMs: snap.Config.BounceMs,
				HTTPAddr: snap.Config.HTTPAddr,
			},
		},
	}
	b, err := json.Marshal(out)
	if err != nil {
		// Snapshot is plain data; marshal cannot realistically fail.
		return []byte(`{"status":{}}`)
	}
	return b
}
