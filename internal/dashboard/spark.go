package dashboard

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sensor_fleet/internal/models"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkline scales values into block glyphs between lo and hi, left-padded
// with a dim rule to width.
func sparkline(values []float64, width int, lo, hi float64) string {
	if width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat("╌", width-len(values)))
	for _, v := range values {
		norm := math.Max(0, math.Min(1, (v-lo)/span))
		sb.WriteRune(sparkBlocks[int(norm*float64(len(sparkBlocks)-1))])
	}
	return sb.String()
}

// alertColor maps an alert to the palette used for temperatures and badges.
func alertColor(a models.AlertType) lipgloss.Color {
	switch a {
	case models.AlertFault:
		return colorCrit
	case models.AlertSpike:
		return colorHigh
	case models.AlertThreshold, models.AlertAnomaly:
		return colorWarn
	default:
		return colorOk
	}
}

// qualityColor grades a 0..100 quality score.
func qualityColor(q int) lipgloss.Color {
	switch {
	case q >= 80:
		return colorOk
	case q >= 50:
		return colorWarn
	default:
		return colorCrit
	}
}
