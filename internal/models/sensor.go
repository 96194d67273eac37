package models

import "time"

// SensorConfig holds the static calibration of one simulated sensor.
// Temperatures are °C, probabilities are in [0,1].
type SensorConfig struct {
	Name             string  `json:"name" mapstructure:"name"`
	Location         string  `json:"location" mapstructure:"location"`
	MinValue         float64 `json:"min_value" mapstructure:"min_value"`
	MaxValue         float64 `json:"max_value" mapstructure:"max_value"`
	NormalMin        float64 `json:"normal_min" mapstructure:"normal_min"`
	NormalMax        float64 `json:"normal_max" mapstructure:"normal_max"`
	NoiseRange       float64 `json:"noise_range" mapstructure:"noise_range"`
	FaultProbability float64 `json:"fault_probability" mapstructure:"fault_probability"`
	SpikeProbability float64 `json:"spike_probability" mapstructure:"spike_probability"`
}

// Sensor is the runtime state of one sensor instance.
type Sensor struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Location         string    `json:"location"`
	MinValue         float64   `json:"min_value"`
	MaxValue         float64   `json:"max_value"`
	NormalMin        float64   `json:"normal_min"`
	NormalMax        float64   `json:"normal_max"`
	NoiseRange       float64   `json:"noise_range"`
	FaultProbability float64   `json:"fault_probability"`
	SpikeProbability float64   `json:"spike_probability"`
	IsFaulty         bool      `json:"is_faulty"`
	IsOffline        bool      `json:"is_offline"` // removed from config; kept for history
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewSensor builds a sensor from its config. ID and timestamps are assigned by the caller.
func NewSensor(cfg SensorConfig) Sensor {
	s := Sensor{}
	s.Apply(cfg)
	return s
}

// Apply copies calibration parameters from cfg, leaving identity and fault state untouched.
func (s *Sensor) Apply(cfg SensorConfig) {
	s.Name = cfg.Name
	s.Location = cfg.Location
	s.MinValue = cfg.MinValue
	s.MaxValue = cfg.MaxValue
	s.NormalMin = cfg.NormalMin
	s.NormalMax = cfg.NormalMax
	s.NoiseRange = cfg.NoiseRange
	s.FaultProbability = cfg.FaultProbability
	s.SpikeProbability = cfg.SpikeProbability
}

// Config returns the calibration part of the sensor.
func (s Sensor) Config() SensorConfig {
	return SensorConfig{
		Name:             s.Name,
		Location:         s.Location,
		MinValue:         s.MinValue,
		MaxValue:         s.MaxValue,
		NormalMin:        s.NormalMin,
		NormalMax:        s.NormalMax,
		NoiseRange:       s.NoiseRange,
		FaultProbability: s.FaultProbability,
		SpikeProbability: s.SpikeProbability,
	}
}

// SensorStatus pairs a sensor with its most recent reading for display.
type SensorStatus struct {
	Sensor Sensor   `json:"sensor"`
	Latest *Reading `json:"latest,omitempty"`
}
