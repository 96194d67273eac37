package engine

import "sensor_fleet/internal/models"

// alertPrecedence is evaluated top to bottom; the first match wins.
var alertPrecedence = []struct {
	alert models.AlertType
	match func(models.Reading) bool
}{
	{models.AlertFault, func(r models.Reading) bool { return r.IsFaulty }},
	{models.AlertSpike, func(r models.Reading) bool { return r.IsSpike }},
	{models.AlertThreshold, func(r models.Reading) bool { return r.ThresholdExceeded }},
	{models.AlertAnomaly, func(r models.Reading) bool { return r.IsAnomaly }},
}

// ResolveAlert returns the single highest-precedence alert for r.
func ResolveAlert(r models.Reading) models.AlertType {
	for _, p := range alertPrecedence {
		if p.match(r) {
			return p.alert
		}
	}
	return models.AlertNone
}
