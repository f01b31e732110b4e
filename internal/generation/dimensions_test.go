package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var imagenSizes = SizeConstraints{
	AspectRatios: []string{"1:1", "3:4", "4:3", "9:16", "16:9"},
	MaxSide:      1408,
}

var freeSizes = SizeConstraints{Multiple: 8, MinSide: 256, MaxSide: 1440}

func TestNormalizeAspectRatios(t *testing.T) {
	tests := []struct {
		width, height int
		ratio         string
	}{
		{1080, 1080, "1:1"},
		{1080, 1920, "9:16"},
		{1200, 628, "16:9"},
		{1200, 675, "16:9"},
		{1000, 1500, "3:4"},
	}
	for _, tt := range tests {
		size := Normalize(tt.width, tt.height, imagenSizes)
		assert.Equal(t, tt.ratio, size.AspectRatio, "%dx%d", tt.width, tt.height)
		assert.LessOrEqual(t, size.Width, 1408)
		assert.LessOrEqual(t, size.Height, 1408)
	}
}

func TestNormalizeFreeForm(t *testing.T) {
	tests := []struct {
		width, height int
		w, h          int
	}{
		{1080, 1080, 1080, 1080},
		{1200, 628, 1200, 632},
		{1080, 1920, 808, 1440},
		{100, 50, 256, 256},
	}
	for _, tt := range tests {
		size := Normalize(tt.width, tt.height, freeSizes)
		assert.Equal(t, tt.w, size.Width, "%dx%d width", tt.width, tt.height)
		assert.Equal(t, tt.h, size.Height, "%dx%d height", tt.width, tt.height)
		assert.Zero(t, size.Width%8)
		assert.Zero(t, size.Height%8)
		assert.Empty(t, size.AspectRatio)
	}
}

func TestNormalizeUnconstrained(t *testing.T) {
	size := Normalize(1200, 627, SizeConstraints{})
	assert.Equal(t, 1200, size.Width)
	assert.Equal(t, 627, size.Height)
}
