package engine

import "sensor_fleet/internal/models"

// Smooth returns the mean temperature of the clean readings in history,
// rounded to 2 decimals, or 0 when there are none.
func Smooth(history []models.Reading) float64 {
	sum, n := 0.0, 0
	for _, r := range history {
		if !r.Clean() {
			continue
		}
		sum += r.Temperature
		n++
	}
	if n == 0 {
		return 0
	}
	return Round2(sum / float64(n))
}
