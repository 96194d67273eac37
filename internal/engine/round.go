package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"sensor_fleet/internal/models"
)

// Round2 rounds v half away from zero to 2 decimal places.
// NaN and infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// IsRounded reports whether v carries no more than 2 decimal places.
func IsRounded(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(2))
}

// clampTemp bounds v to the representable reading range.
func clampTemp(v float64) float64 {
	return math.Max(models.TempFloor, math.Min(v, models.TempCeiling))
}
