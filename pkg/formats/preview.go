package formats

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/Faultbox/terramesh/pkg/heightmap"
)

// ColorStop is one key of a colour ramp.
type ColorStop struct {
	Pos   float32 // position in [0, 1]
	Color color.NRGBA
}

// Ramp is a piecewise-linear colour gradient. Stops must be sorted by Pos.
type Ramp []ColorStop

// TerrainRamp runs from lowland green through rock to snow.
var TerrainRamp = Ramp{
	{0.00, color.NRGBA{R: 58, G: 110, B: 54, A: 255}},
	{0.35, color.NRGBA{R: 120, G: 150, B: 70, A: 255}},
	{0.60, color.NRGBA{R: 130, G: 105, B: 75, A: 255}},
	{0.85, color.NRGBA{R: 150, G: 145, B: 140, A: 255}},
	{1.00, color.NRGBA{R: 245, G: 245, B: 250, A: 255}},
}

// SeaColor fills samples below PreviewOptions.SeaLevel.
var SeaColor = color.NRGBA{R: 0, G: 42, B: 73, A: 255}

// Evaluate returns the ramp colour at t, clamping t to the end stops.
func (r Ramp) Evaluate(t float32) color.NRGBA {
	if len(r) == 0 {
		return color.NRGBA{}
	}
	if t <= r[0].Pos {
		return r[0].Color
	}
	for i := 1; i < len(r); i++ {
		if t <= r[i].Pos {
			a, b := r[i-1], r[i]
			span := b.Pos - a.Pos
			if span <= 0 {
				return b.Color
			}
			f := (t - a.Pos) / span
			return color.NRGBA{
				R: mix(a.Color.R, b.Color.R, f),
				G: mix(a.Color.G, b.Color.G, f),
				B: mix(a.Color.B, b.Color.B, f),
				A: mix(a.Color.A, b.Color.A, f),
			}
		}
	}
	return r[len(r)-1].Color
}

func mix(a, b uint8, f float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*f + 0.5)
}

// PreviewOptions configures Colorize.
type PreviewOptions struct {
	Ramp Ramp // TerrainRamp when nil

	// SeaLevel is a normalised height; samples below it are painted SeaColor.
	// Zero disables the sea.
	SeaLevel float32

	// Jitter scales each sample's ramp position by a random factor in
	// [1-Jitter, 1+Jitter] drawn from Rand. Ignored when Rand is nil.
	Jitter float32
	Rand   *rand.Rand
}

// Colorize renders g as a colour preview. Heights are normalised to [0, 1]
// by the grid's own min and max before the ramp is applied.
func Colorize(g *heightmap.Grid, opts PreviewOptions) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	if g.Len() == 0 {
		return img
	}

	ramp := opts.Ramp
	if ramp == nil {
		ramp = TerrainRamp
	}

	lo, hi, _ := g.MinMax()
	span := hi - lo

	for y := range g.Height {
		for x := range g.Width {
			var t float32
			if span > 0 {
				t = (g.At(x, y) - lo) / span
			}

			c := SeaColor
			if t >= opts.SeaLevel {
				if opts.Jitter > 0 && opts.Rand != nil {
					t *= 1 + opts.Jitter*(2*opts.Rand.Float32()-1)
				}
				c = ramp.Evaluate(t)
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
