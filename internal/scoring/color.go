// Package scoring holds the pure classification and scoring rules applied to sheet cells:
// colour and status classification, point values and the streak engine.
package scoring

import (
	"math"

	"github.com/noah-isme/mellowboard/internal/models"
)

const lightChannelThreshold = 240

type referenceColor struct {
	color   models.Color
	r, g, b float64
}

// Checked in this order; the first of equally distant references wins.
var referenceColors = []referenceColor{
	{color: models.ColorRed, r: 255, g: 66, b: 66},
	{color: models.ColorOrange, r: 255, g: 187, b: 0},
	{color: models.ColorGreen, r: 102, g: 255, b: 102},
}

// ClassifyColor maps a cell background to its semantic colour. A nil colour is treated
// as unset and classifies as transparent.
func ClassifyColor(c *models.RGB) models.Color {
	if c == nil {
		return models.ColorTransparent
	}
	if !finite(c.Red) || !finite(c.Green) || !finite(c.Blue) {
		return models.ColorUnknown
	}
	if c.Red == 0 && c.Green == 0 && c.Blue == 0 {
		return models.ColorTransparent
	}

	r, g, b := toByte(c.Red), toByte(c.Green), toByte(c.Blue)
	if r > lightChannelThreshold && g > lightChannelThreshold && b > lightChannelThreshold {
		return models.ColorTransparent
	}

	best := models.ColorUnknown
	bestDistance := math.Inf(1)
	for _, ref := range referenceColors {
		d := math.Sqrt((r-ref.r)*(r-ref.r) + (g-ref.g)*(g-ref.g) + (b-ref.b)*(b-ref.b))
		if d < bestDistance {
			best = ref.color
			bestDistance = d
		}
	}
	return best
}

func toByte(v float64) float64 {
	return math.Round(math.Max(0, math.Min(1, v)) * 255)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
