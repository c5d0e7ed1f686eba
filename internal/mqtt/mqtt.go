// Package mqtt publishes deterrent telemetry to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/duck-deterrent/internal/logic"
)

// TopicPrefix is the root of every topic the deterrent publishes on.
const TopicPrefix = "deterrent"

// Topic is the topic for state transitions of the given device.
func Topic(deviceID string) string {
	return fmt.Sprintf("%s/%s/events", TopicPrefix, deviceID)
}

// TopicSystem is the topic for lifecycle events of the given device.
func TopicSystem(deviceID string) string {
	return fmt.Sprintf("%s/%s/system", TopicPrefix, deviceID)
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a state transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(at time.Time, tr logic.Transition) error

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

// Payload represents the MQTT message payload structure.
type Payload struct {
	Deterrent TransitionPayload `json:"deterrent"`
}

// TransitionPayload contains the details of one state change.
type TransitionPayload struct {
	Timestamp    string `json:"timestamp"`
	Event        string `json:"event"`
	From         string `json:"from"`
	Reason       string `json:"reason"`
	TriggerCount int    `json:"trigger_count"`
}

// FormatPayload creates the JSON payload for a state transition. The event
// name is the state entered.
func FormatPayload(at time.Time, tr logic.Transition) ([]byte, error) {
	payload := Payload{
		Deterrent: TransitionPayload{
			Timestamp:    at.UTC().Format(time.RFC3339),
			Event:        tr.To.String(),
			From:         tr.From.String(),
			Reason:       tr.Reason,
			TriggerCount: tr.TriggerCount,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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
