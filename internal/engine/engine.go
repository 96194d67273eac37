// Package engine generates simulated temperature readings and scores them:
// fault and spike injection, dual-range validation, quality scoring,
// smoothing and z-score anomaly detection.
package engine

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
)

// Spike generation constants (°C).
const (
	spikeOffset       = 5.0
	spikeMaxMagnitude = 10.0
)

// Engine produces one Reading per Simulate call. The random source is
// guarded by a mutex so a single Engine may be shared across goroutines.
type Engine struct {
	Validator

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New returns an engine drawing from rng and validating against tr.
func New(rng *rand.Rand, tr models.TemperatureRange, log *logger.Logger) *Engine {
	return &Engine{
		Validator: NewValidator(tr, log),
		rng:       rng,
		now:       time.Now,
	}
}

// NewSeeded returns an engine with a deterministic PCG source.
func NewSeeded(seed uint64, tr models.TemperatureRange, log *logger.Logger) *Engine {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), tr, log)
}

// Simulate generates a reading for s. The sensor is taken by value: a fault
// drawn here marks only the returned reading, never the sensor itself.
func (e *Engine) Simulate(s models.Sensor) models.Reading {
	r := models.Reading{
		SensorID:   s.ID,
		SensorName: s.Name,
		Location:   s.Location,
		Timestamp:  e.now().UTC(),
	}

	e.mu.Lock()
	r.IsFaulty = s.IsFaulty || e.rng.Float64() < s.FaultProbability
	switch {
	case r.IsFaulty:
		r.Temperature = faultTemperature(e.rng)
	case e.rng.Float64() < s.SpikeProbability:
		r.IsSpike = true
		r.Temperature = spikeTemperature(e.rng, s)
	default:
		r.Temperature = normalTemperature(e.rng, s)
	}
	e.mu.Unlock()

	r.IsValid = e.Validate(r, s)
	r.ThresholdExceeded = e.CheckThreshold(r, s, nil, nil)
	r.IsAnomaly = r.IsSpike || r.IsFaulty || r.ThresholdExceeded
	r.AlertType = ResolveAlert(r)
	r.QualityScore = e.Score(r, s)
	return r
}

// faultTemperature is the hot or cold failure signature.
func faultTemperature(rng *rand.Rand) float64 {
	if rng.Float64() < 0.5 {
		return models.TempCeiling
	}
	return models.TempFloor
}

func spikeTemperature(rng *rand.Rand, s models.Sensor) float64 {
	magnitude := rng.Float64() * spikeMaxMagnitude
	if rng.Float64() < 0.5 {
		return Round2(math.Min(s.MaxValue+spikeOffset+magnitude, models.TempCeiling))
	}
	return Round2(math.Max(s.MinValue-spikeOffset-magnitude, models.TempFloor))
}

// normalTemperature draws uniformly from the normal band and adds symmetric noise.
func normalTemperature(rng *rand.Rand, s models.Sensor) float64 {
	base := s.NormalMin + rng.Float64()*(s.NormalMax-s.NormalMin)
	noise := (rng.Float64() - 0.5) * 2 * s.NoiseRange
	return clampTemp(Round2(base + noise))
}
