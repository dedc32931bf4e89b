// FilePath: internal/notify/notify.go
// Package notify fans pre-formed alert events out to whoever the server
// wires up at startup. Dispatch is fire-and-forget: a slow or failing
// handler never blocks or fails the emitting unit of work.
package notify

import (
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Event names emitted by the hub services
const (
	EventThresholdBreach  = "telemetry.threshold"
	EventSessionTimeout   = "session.timeout"
	EventDeviceOffline    = "device.offline"
	EventDeviceDiscovered = "device.discovered"
	EventFirmwareOutdated = "firmware.outdated"
)

// AlertEvent is the envelope handed to notification handlers.
type AlertEvent struct {
	Name      string            `json:"name"`
	VIN       string            `json:"vin,omitempty"`
	DeviceID  string            `json:"device_id,omitempty"`
	Message   string            `json:"message"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Dispatcher wraps the event emitter behind a typed API.
type Dispatcher struct {
	events *nuts.EventEmitter
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{events: nuts.NewEventEmitter()}
}

// Emit publishes an alert. The timestamp is stamped here if unset.
func (d *Dispatcher) Emit(event AlertEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	nuts.L.Infof("[Notify] Event %s device=%s vin=%s: %s", event.Name, event.DeviceID, event.VIN, event.Message)
	d.events.Emit(event.Name, event)
}

// On registers a handler for one event name.
func (d *Dispatcher) On(name, handlerID string, handler func(event AlertEvent)) {
	d.events.On(name, handlerID, func(args ...interface{}) {
		if len(args) > 0 {
			if event, ok := args[0].(AlertEvent); ok {
				handler(event)
			}
		}
	})
}
