package models

import (
	"fmt"
	"time"
)

// Bounds every generated temperature is clamped to.
const (
	TempFloor   = -99.99
	TempCeiling = 999.99
)

// AlertType classifies a reading. Exactly one is assigned per reading.
type AlertType int

const (
	AlertNone AlertType = iota
	AlertThreshold
	AlertAnomaly
	AlertSpike
	AlertFault
)

var alertNames = map[AlertType]string{
	AlertNone:      "NONE",
	AlertThreshold: "THRESHOLD",
	AlertAnomaly:   "ANOMALY",
	AlertSpike:     "SPIKE",
	AlertFault:     "FAULT",
}

func (a AlertType) String() string {
	if s, ok := alertNames[a]; ok {
		return s
	}
	return fmt.Sprintf("AlertType(%d)", int(a))
}

// MarshalText encodes the alert as its name so JSON and SQL carry "SPIKE", not 3.
func (a AlertType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AlertType) UnmarshalText(b []byte) error {
	t, err := ParseAlertType(string(b))
	if err != nil {
		return err
	}
	*a = t
	return nil
}

// ParseAlertType is the inverse of AlertType.String.
func ParseAlertType(s string) (AlertType, error) {
	for t, name := range alertNames {
		if name == s {
			return t, nil
		}
	}
	return AlertNone, fmt.Errorf("unknown alert type %q", s)
}

// Reading is one simulated temperature observation plus its derived flags.
type Reading struct {
	SensorID          string    `json:"sensor_id"`
	SensorName        string    `json:"sensor_name"`
	Location          string    `json:"location"`
	Temperature       float64   `json:"temperature"` // °C, 2 decimals
	Timestamp         time.Time `json:"timestamp"`
	IsSpike           bool      `json:"is_spike"`
	IsFaulty          bool      `json:"is_faulty"`
	IsValid           bool      `json:"is_valid"`
	IsAnomaly         bool      `json:"is_anomaly"`
	ThresholdExceeded bool      `json:"threshold_exceeded"`
	AlertType         AlertType `json:"alert_type"`
	SmoothedValue     float64   `json:"smoothed_value"`
	QualityScore      int       `json:"quality_score"` // 0..100
}

// Clean reports whether the reading may feed smoothing and statistics.
func (r Reading) Clean() bool {
	return !r.IsFaulty && !r.IsSpike && r.IsValid
}

// TemperatureRange is the process-wide fixed acceptable band.
type TemperatureRange struct {
	Min                    float64 `json:"min" mapstructure:"min"`
	Max                    float64 `json:"max" mapstructure:"max"`
	UseFixedRangeAsPrimary bool    `json:"use_fixed_range_as_primary" mapstructure:"use_fixed_range_as_primary"`
}

// DefaultTemperatureRange is 22.0–24.0 °C used as the primary check.
func DefaultTemperatureRange() TemperatureRange {
	return TemperatureRange{Min: 22.0, Max: 24.0, UseFixedRangeAsPrimary: true}
}

// SensorStats aggregates stored readings of one sensor over a time window.
type SensorStats struct {
	SensorID     string    `json:"sensor_id"`
	From         time.Time `json:"from,omitempty"`
	To           time.Time `json:"to,omitempty"`
	Count        int       `json:"count"`
	MinTemp      float64   `json:"min_temp"`
	MaxTemp      float64   `json:"max_temp"`
	AvgTemp      float64   `json:"avg_temp"`
	AvgQuality   float64   `json:"avg_quality"`
	AnomalyCount int       `json:"anomaly_count"`
	SpikeCount   int       `json:"spike_count"`
	FaultCount   int       `json:"fault_count"`
	InvalidCount int       `json:"invalid_count"`
}
