package service

import "time"

// LogFilter supports history filtering by time range, type and sensor.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "FAULT_INJECTED", "SPIKE", "ANOMALY", ...
	Sensor string    // sensor name; "" means all
}

// SimulatorOptions tune the tick pipeline.
type SimulatorOptions struct {
	HistorySize    int           // readings fed to smoothing and anomaly detection
	Retention      time.Duration // 0 keeps readings forever
	RetentionCheck int           // ticks between prune passes
}
