package models

import "time"

// Event types recorded for sensors.
const (
	EventFaultInjected = "FAULT_INJECTED"
	EventFaultCleared  = "FAULT_CLEARED"
	EventShutdown      = "SHUTDOWN"
	EventStarted       = "STARTED"
	EventSensorAdded   = "SENSOR_ADDED"
	EventSensorOffline = "SENSOR_OFFLINE"
	EventSensorOnline  = "SENSOR_ONLINE"
)

// SensorEvent is a single audit/log entry.
type SensorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // FAULT_INJECTED | SHUTDOWN | SPIKE | FAULT | ...
	SensorName  string    `json:"sensor_name,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
