package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/mellowboard/internal/models"
)

func rgb(r, g, b float64) *models.RGB {
	return &models.RGB{Red: r / 255, Green: g / 255, Blue: b / 255}
}

func TestClassifyColorReferences(t *testing.T) {
	cases := []struct {
		name  string
		input *models.RGB
		want  models.Color
	}{
		{"exact green", rgb(102, 255, 102), models.ColorGreen},
		{"sheet green", rgb(0x67, 0xf1, 0x55), models.ColorGreen},
		{"near green", rgb(120, 230, 90), models.ColorGreen},
		{"exact orange", rgb(255, 187, 0), models.ColorOrange},
		{"sheet orange", rgb(0xfb, 0xbc, 0x04), models.ColorOrange},
		{"exact red", rgb(255, 66, 66), models.ColorRed},
		{"sheet red", rgb(0xff, 0x3a, 0x3a), models.ColorRed},
		{"dark red", rgb(200, 30, 30), models.ColorRed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyColor(tc.input))
		})
	}
}

func TestClassifyColorTransparent(t *testing.T) {
	assert.Equal(t, models.ColorTransparent, ClassifyColor(nil))
	assert.Equal(t, models.ColorTransparent, ClassifyColor(&models.RGB{}))
	assert.Equal(t, models.ColorTransparent, ClassifyColor(&models.RGB{Red: 1, Green: 1, Blue: 1}))
	assert.Equal(t, models.ColorTransparent, ClassifyColor(rgb(245, 250, 241)))
}

func TestClassifyColorNearestWins(t *testing.T) {
	// Far from every reference, still resolved to the closest one.
	assert.Equal(t, models.ColorGreen, ClassifyColor(rgb(0, 128, 0)))
	assert.Equal(t, models.ColorRed, ClassifyColor(rgb(90, 0, 0)))
	// One channel above the light threshold is not enough to be transparent.
	assert.Equal(t, models.ColorOrange, ClassifyColor(rgb(255, 200, 60)))
}

func TestClassifyColorClampsAndRejectsInvalid(t *testing.T) {
	assert.Equal(t, models.ColorTransparent, ClassifyColor(&models.RGB{Red: 3, Green: 2, Blue: 5}))
	assert.Equal(t, models.ColorUnknown, ClassifyColor(&models.RGB{Red: math.NaN()}))
	assert.Equal(t, models.ColorUnknown, ClassifyColor(&models.RGB{Green: math.Inf(1)}))
}
