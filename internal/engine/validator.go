package engine

import (
	"math"

	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
)

// Quality scores.
const (
	scoreMax      = 100
	scoreKnownBad = 10 // fault or spike
	scoreInvalid  = 0
)

// Validator applies the fixed-range / sensor-range policy.
type Validator struct {
	Range models.TemperatureRange
	log   *logger.Logger
}

// NewValidator returns a validator for tr. log may be nil.
func NewValidator(tr models.TemperatureRange, log *logger.Logger) Validator {
	return Validator{Range: tr, log: log}
}

// Validate reports whether r is a trustworthy in-range reading.
// Spikes and faults are never valid. With UseFixedRangeAsPrimary the fixed
// band decides, otherwise the sensor's hard bounds do.
func (v Validator) Validate(r models.Reading, s models.Sensor) bool {
	if r.IsFaulty || r.IsSpike {
		return false
	}
	if !IsRounded(r.Temperature) {
		if v.log != nil {
			v.log.Warnw("reading_precision_mismatch",
				"sensor", s.Name,
				"temperature", r.Temperature,
			)
		}
		return false
	}
	if v.Range.UseFixedRangeAsPrimary {
		return inRange(r.Temperature, v.Range.Min, v.Range.Max)
	}
	return inRange(r.Temperature, s.MinValue, s.MaxValue)
}

// CheckThreshold reports whether r lies OUTSIDE the applicable band.
// In primary mode the fixed band is used and custom bounds are ignored;
// otherwise customMin/customMax override the sensor's normal band when non-nil.
func (v Validator) CheckThreshold(r models.Reading, s models.Sensor, customMin, customMax *float64) bool {
	lo, hi := s.NormalMin, s.NormalMax
	if v.Range.UseFixedRangeAsPrimary {
		lo, hi = v.Range.Min, v.Range.Max
	} else {
		if customMin != nil {
			lo = *customMin
		}
		if customMax != nil {
			hi = *customMax
		}
	}
	return r.Temperature < lo || r.Temperature > hi
}

// Score maps a reading to 0..100. Faults and spikes report 10 so that
// "known bad" is distinguishable from other invalid readings, which score 0.
func (v Validator) Score(r models.Reading, _ models.Sensor) int {
	if r.IsFaulty || r.IsSpike {
		return scoreKnownBad
	}
	if !r.IsValid {
		return scoreInvalid
	}

	midpoint := (v.Range.Min + v.Range.Max) / 2
	deviation := math.Abs(r.Temperature - midpoint)
	maxDeviation := (v.Range.Max - v.Range.Min) / 2

	ratio := 1.0
	switch {
	case deviation == 0:
		ratio = 0
	case maxDeviation > 0:
		ratio = deviation / maxDeviation
	}

	score := scoreMax - int(math.Floor(ratio*50))
	return max(scoreInvalid, min(score, scoreMax))
}

func inRange(t, lo, hi float64) bool {
	return t >= lo && t <= hi
}
