package config

import (
	"fmt"
	"math"
	"strings"

	"sensor_fleet/internal/models"
)

// ValidateSensor checks the bounds and probabilities of one sensor config.
// The returned error names the violated constraint.
func ValidateSensor(c models.SensorConfig) error {
	name := strings.TrimSpace(c.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSensorConfig)
	case strings.TrimSpace(c.Location) == "":
		return invalid(name, "location is required")
	}
	if field, ok := nonFinite(c); ok {
		return invalid(name, "%s must be a finite number", field)
	}
	switch {
	case c.MinValue >= c.MaxValue:
		return invalid(name, "min_value %.2f must be less than max_value %.2f", c.MinValue, c.MaxValue)
	case c.NormalMin < c.MinValue:
		return invalid(name, "normal_min %.2f is below min_value %.2f", c.NormalMin, c.MinValue)
	case c.NormalMax > c.MaxValue:
		return invalid(name, "normal_max %.2f is above max_value %.2f", c.NormalMax, c.MaxValue)
	case c.NormalMin > c.NormalMax:
		return invalid(name, "normal_min %.2f is above normal_max %.2f", c.NormalMin, c.NormalMax)
	case c.NoiseRange < 0:
		return invalid(name, "noise_range %.2f must not be negative", c.NoiseRange)
	case c.FaultProbability < 0 || c.FaultProbability > 1:
		return invalid(name, "fault_probability %.2f must be within [0,1]", c.FaultProbability)
	case c.SpikeProbability < 0 || c.SpikeProbability > 1:
		return invalid(name, "spike_probability %.2f must be within [0,1]", c.SpikeProbability)
	}
	return nil
}

// nonFinite reports the first numeric field holding NaN or ±Inf. Every
// comparison against NaN is false, so the range checks alone let it through.
func nonFinite(c models.SensorConfig) (string, bool) {
	fields := []struct {
		name string
		v    float64
	}{
		{"min_value", c.MinValue},
		{"max_value", c.MaxValue},
		{"normal_min", c.NormalMin},
		{"normal_max", c.NormalMax},
		{"noise_range", c.NoiseRange},
		{"fault_probability", c.FaultProbability},
		{"spike_probability", c.SpikeProbability},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return f.name, true
		}
	}
	return "", false
}

// ValidateSensors validates every config and rejects duplicate names.
func ValidateSensors(cfgs []models.SensorConfig) error {
	seen := make(map[string]bool, len(cfgs))
	for _, c := range cfgs {
		if err := ValidateSensor(c); err != nil {
			return err
		}
		if seen[c.Name] {
			return invalid(c.Name, "duplicate sensor name")
		}
		seen[c.Name] = true
	}
	return nil
}

func invalid(name, format string, args ...any) error {
	return fmt.Errorf("%w: sensor %q: %s", ErrInvalidSensorConfig, name, fmt.Sprintf(format, args...))
}
