// Package heightmap provides the height grid container and grid-level transforms
// (resampling, thresholding, tiling).
package heightmap

import (
	"errors"
	"fmt"
)

// Grid errors.
var (
	ErrOutOfRange        = errors.New("grid coordinate out of range")
	ErrEmptyGrid         = errors.New("grid is empty")
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrSampleCount       = errors.New("sample count does not match grid dimensions")
)

// Grid is a rectangular field of scalar heights.
//
// Samples are stored row-major: the sample for (x, y) lives at y*Width + x.
// Every function in this package uses that convention; a grid is never
// mutated once handed out.
type Grid struct {
	Width   int
	Height  int
	Samples []float32
}

// New returns a zero-filled grid.
func New(width, height int) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Grid{
		Width:   width,
		Height:  height,
		Samples: make([]float32, width*height),
	}, nil
}

// FromSamples wraps a flat row-major sample slice, e.g. an inference output.
// The slice is not copied.
func FromSamples(width, height int, samples []float32) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrSampleCount, len(samples), width*height)
	}
	return &Grid{Width: width, Height: height, Samples: samples}, nil
}

// FromRows builds a grid from rows[y][x]. All rows must have the same length.
func FromRows(rows [][]float32) (*Grid, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	samples := make([]float32, 0, width*height)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrSampleCount, y, len(row), width)
		}
		samples = append(samples, row...)
	}
	return &Grid{Width: width, Height: height, Samples: samples}, nil
}

// Len returns the number of samples.
func (g *Grid) Len() int {
	return g.Width * g.Height
}

// Index returns the flat sample index of (x, y). No bounds check.
func (g *Grid) Index(x, y int) int {
	return y*g.Width + x
}

// At returns the sample at (x, y) without bounds checking.
func (g *Grid) At(x, y int) float32 {
	return g.Samples[y*g.Width+x]
}

// Get returns the sample at (x, y).
func (g *Grid) Get(x, y int) (float32, error) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return 0, fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfRange, x, y, g.Width, g.Height)
	}
	return g.Samples[y*g.Width+x], nil
}

// MinMax returns the smallest and largest sample.
func (g *Grid) MinMax() (lo, hi float32, err error) {
	if g.Len() == 0 {
		return 0, 0, ErrEmptyGrid
	}
	lo, hi = g.Samples[0], g.Samples[0]
	for _, v := range g.Samples[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	samples := make([]float32, len(g.Samples))
	copy(samples, g.Samples)
	return &Grid{Width: g.Width, Height: g.Height, Samples: samples}
}

// Threshold returns a copy of g where every sample below t is set to 0.
// Used to clean up predicted heightmaps before meshing with zero-skipping.
func Threshold(g *Grid, t float32) *Grid {
	out := g.Clone()
	for i, v := range out.Samples {
		if v < t {
			out.Samples[i] = 0
		}
	}
	return out
}
