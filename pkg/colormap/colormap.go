// Package colormap produces ordered colors along a fixed rainbow ramp. The same
// count always yields the same colors, so a block keeps its color in every view.
package colormap

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

type controlPoint struct {
	amount float64
	rgb    [3]float64
}

var rainbow = []controlPoint{
	{0, [3]float64{150, 0, 90}},
	{0.125, [3]float64{0, 0, 200}},
	{0.25, [3]float64{0, 25, 255}},
	{0.375, [3]float64{0, 152, 255}},
	{0.5, [3]float64{44, 255, 150}},
	{0.625, [3]float64{151, 255, 0}},
	{0.75, [3]float64{255, 234, 0}},
	{0.875, [3]float64{255, 111, 0}},
	{1, [3]float64{255, 0, 0}},
}

// hex rounds each 0-255 channel half up and formats the color.
func hex(rgb [3]float64) string {
	c := colorful.Color{
		R: math.Floor(rgb[0]+0.5) / 255,
		G: math.Floor(rgb[1]+0.5) / 255,
		B: math.Floor(rgb[2]+0.5) / 255,
	}
	return c.Hex()
}

// Rainbow returns n hex colors from the first to the last control point,
// interpolated linearly between neighbouring points on 0-255 channels. A
// single shade is the first control point.
func Rainbow(n int) []string {
	if n <= 0 {
		return nil
	}
	colors := make([]string, n)
	if n == 1 {
		colors[0] = hex(rainbow[0].rgb)
		return colors
	}

	last := float64(len(rainbow) - 1)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		lo := rainbow[int(math.Floor(last*t))]
		hi := rainbow[int(math.Ceil(last*t))]
		amt := 0.0
		if span := hi.amount - lo.amount; span != 0 {
			amt = (t - lo.amount) / span
		}
		var mixed [3]float64
		for ch := range mixed {
			mixed[ch] = lo.rgb[ch] + amt*(hi.rgb[ch]-lo.rgb[ch])
		}
		colors[i] = hex(mixed)
	}
	return colors
}

// First returns the ramp's first control color.
func First() string {
	return hex(rainbow[0].rgb)
}

// Last returns the ramp's last control color.
func Last() string {
	return hex(rainbow[len(rainbow)-1].rgb)
}
