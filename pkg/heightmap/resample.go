package heightmap

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTargetSize is returned when a resample target dimension is below 1.
var ErrInvalidTargetSize = errors.New("invalid resample target size")

// Resample returns a bilinearly interpolated copy of g at targetWidth x targetHeight.
//
// Target (x, y) maps onto source coordinates gx = x/(targetWidth-1) * (Width-1)
// (and likewise for y), so the corner samples of source and target always line
// up. A target dimension of 1 samples source coordinate 0 along that axis.
// Output values are clamped to [0, 1].
func Resample(g *Grid, targetWidth, targetHeight int) (*Grid, error) {
	if targetWidth < 1 || targetHeight < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTargetSize, targetWidth, targetHeight)
	}
	if g.Len() == 0 {
		return nil, ErrEmptyGrid
	}

	out := &Grid{
		Width:   targetWidth,
		Height:  targetHeight,
		Samples: make([]float32, targetWidth*targetHeight),
	}

	for y := range targetHeight {
		gy := sourceCoord(y, targetHeight, g.Height)
		y0, y1, dy := neighbours(gy, g.Height)
		for x := range targetWidth {
			gx := sourceCoord(x, targetWidth, g.Width)
			x0, x1, dx := neighbours(gx, g.Width)

			// Lerp along x on both rows, then along y.
			bottom := lerp(float64(g.At(x0, y0)), float64(g.At(x1, y0)), dx)
			top := lerp(float64(g.At(x0, y1)), float64(g.At(x1, y1)), dx)
			out.Samples[y*targetWidth+x] = float32(clamp01(lerp(bottom, top, dy)))
		}
	}
	return out, nil
}

// ScaleByRatio resamples g to round(Width*ratio) x round(Height*ratio).
// Halfway cases round to even.
func ScaleByRatio(g *Grid, ratio float64) (*Grid, error) {
	w, h := ScaledSize(g.Width, g.Height, ratio)
	return Resample(g, w, h)
}

// ScaledSize returns the target dimensions ScaleByRatio would use.
func ScaledSize(width, height int, ratio float64) (int, int) {
	return int(math.RoundToEven(float64(width) * ratio)), int(math.RoundToEven(float64(height) * ratio))
}

func sourceCoord(i, target, source int) float64 {
	if target == 1 {
		return 0
	}
	return float64(i) / float64(target-1) * float64(source-1)
}

// neighbours returns the floor and ceil sample indices around g and the
// fractional weight, keeping both indices inside [0, size).
func neighbours(g float64, size int) (lo, hi int, frac float64) {
	lo = int(math.Floor(g))
	hi = int(math.Ceil(g))
	frac = g - float64(lo)
	if lo > size-1 {
		lo = size - 1
	}
	if hi > size-1 {
		hi = size - 1
	}
	return lo, hi, frac
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
