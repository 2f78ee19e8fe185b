// Package mqtt publishes input events and system lifecycle events to a broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/envmon/internal/logic"
)

// TopicEvents is the MQTT topic for button events.
const TopicEvents = "envmon/inputs/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "envmon/system"

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventReconnected = "RECONNECTED"
	EventOffline     = "OFFLINE"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an input event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for an input event.
type Payload struct {
	Input InputPayload `json:"input"`
}

// InputPayload contains the input event details. HeldMs and Press are only
// set for releases.
type InputPayload struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Event     string `json:"event"`
	HeldMs    *int64 `json:"held_ms,omitempty"`
	Press     string `json:"press,omitempty"`
}

// timestampMillis is RFC 3339 with millisecond precision.
const timestampMillis = "2006-01-02T15:04:05.000Z07:00"

// FormatPayload creates the JSON payload for an input event.
func FormatPayload(event logic.Event) ([]byte, error) {
	inner := InputPayload{
		Timestamp: event.Timestamp.UTC().Format(timestampMillis),
		Name:      event.Input,
		Event:     string(event.Type),
	}
	if event.Type == logic.EventReleased {
		held := event.Held.Milliseconds()
		inner.HeldMs = &held
		inner.Press = event.Press.String()
	}
	return json.Marshal(Payload{Input: inner})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (last will, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
