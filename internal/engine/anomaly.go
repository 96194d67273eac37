package engine

import (
	"math"

	"sensor_fleet/internal/models"
)

const (
	// MinAnomalySamples is the number of clean recent readings required
	// before a statistical verdict is given.
	MinAnomalySamples = 5
	// ZScoreThreshold is the deviation, in standard deviations, that flags an outlier.
	ZScoreThreshold = 2.0
)

// DetectAnomaly flags faults and spikes outright, then tests current against
// the population mean and standard deviation of the clean readings in recent.
func DetectAnomaly(current models.Reading, recent []models.Reading) bool {
	if current.IsFaulty || current.IsSpike {
		return true
	}

	values := make([]float64, 0, len(recent))
	for _, r := range recent {
		if r.Clean() {
			values = append(values, r.Temperature)
		}
	}
	if len(values) < MinAnomalySamples {
		return false
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return math.Abs(current.Temperature-mean) > ZScoreThreshold*math.Sqrt(variance)
}
