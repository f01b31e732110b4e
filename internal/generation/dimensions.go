package generation

import (
	"math"
	"strconv"
	"strings"
)

// SizeConstraints describe what an image provider accepts. AspectRatios,
// when set, restricts output to those ratios ("16:9"). Multiple rounds each
// side; MinSide and MaxSide clamp them. Zero values mean unconstrained.
type SizeConstraints struct {
	AspectRatios []string
	Multiple     int
	MinSide      int
	MaxSide      int
}

type ImageSize struct {
	Width       int
	Height      int
	AspectRatio string
}

// Normalize maps a platform canvas onto the nearest size the provider supports.
func Normalize(width, height int, c SizeConstraints) ImageSize {
	if width <= 0 || height <= 0 {
		width, height = 1024, 1024
	}
	ratio := float64(width) / float64(height)

	var size ImageSize
	if len(c.AspectRatios) > 0 {
		bestDiff := math.Inf(1)
		for _, ar := range c.AspectRatios {
			r, ok := parseRatio(ar)
			if !ok {
				continue
			}
			if d := math.Abs(math.Log(r / ratio)); d < bestDiff {
				bestDiff = d
				size.AspectRatio = ar
			}
		}
		if r, ok := parseRatio(size.AspectRatio); ok {
			ratio = r
		}
	}

	long := float64(max(width, height))
	if c.MaxSide > 0 && long > float64(c.MaxSide) {
		long = float64(c.MaxSide)
	}
	if c.MinSide > 0 && long < float64(c.MinSide) {
		long = float64(c.MinSide)
	}

	var w, h float64
	if ratio >= 1 {
		w, h = long, long/ratio
	} else {
		w, h = long*ratio, long
	}
	size.Width = clampSide(roundTo(w, c.Multiple), c)
	size.Height = clampSide(roundTo(h, c.Multiple), c)
	return size
}

func parseRatio(s string) (float64, bool) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	x, err1 := strconv.ParseFloat(a, 64)
	y, err2 := strconv.ParseFloat(b, 64)
	if err1 != nil || err2 != nil || x <= 0 || y <= 0 {
		return 0, false
	}
	return x / y, true
}

func roundTo(v float64, m int) int {
	if m <= 1 {
		return int(math.Round(v))
	}
	n := int(math.Round(v/float64(m))) * m
	if n < m {
		n = m
	}
	return n
}

func clampSide(v int, c SizeConstraints) int {
	if c.MinSide > 0 && v < c.MinSide {
		v = c.MinSide
	}
	if c.MaxSide > 0 && v > c.MaxSide {
		v = c.MaxSide
	}
	return v
}
