package terrain

import (
	"fmt"

	"github.com/Faultbox/terramesh/pkg/heightmap"
)

// Options configures Generate.
type Options struct {
	// Threshold zeroes samples below it before anything else; 0 disables it.
	Threshold float32

	// Resampling: explicit target dimensions win over Ratio. A Ratio of 0 or 1
	// with no target keeps the source resolution.
	TargetWidth  int
	TargetHeight int
	Ratio        float64

	HeightScale float32
	SkipZero    bool
	Smooth      SmoothParams
}

// DefaultOptions returns a dense, unscaled, unsmoothed configuration.
func DefaultOptions() Options {
	return Options{
		HeightScale: 1,
		Smooth:      DefaultSmoothParams(),
	}
}

// Result is the output of Generate.
type Result struct {
	Grid *heightmap.Grid // the grid the mesh was built from, after resampling
	Mesh *Mesh

	// Warning is non-nil when some normals fell back to the up vector; it
	// wraps ErrDegenerateNormal.
	Warning error
}

// Generate runs the full grid-to-mesh pipeline: threshold, resample,
// triangulate, smooth, then a single normal and bounds pass.
func Generate(g *heightmap.Grid, opts Options) (*Result, error) {
	grid := g
	if opts.Threshold > 0 {
		grid = heightmap.Threshold(grid, opts.Threshold)
	}

	var err error
	switch {
	case opts.TargetWidth > 0 || opts.TargetHeight > 0:
		tw, th := opts.TargetWidth, opts.TargetHeight
		if tw <= 0 {
			tw = grid.Width
		}
		if th <= 0 {
			th = grid.Height
		}
		grid, err = heightmap.Resample(grid, tw, th)
	case opts.Ratio > 0 && opts.Ratio != 1:
		grid, err = heightmap.ScaleByRatio(grid, opts.Ratio)
	}
	if err != nil {
		return nil, fmt.Errorf("resampling heightmap: %w", err)
	}

	m, err := build(grid, opts.HeightScale, opts.SkipZero)
	if err != nil {
		return nil, err
	}
	if _, err := smoothPositions(m, opts.Smooth); err != nil {
		return nil, err
	}

	res := &Result{Grid: grid, Mesh: m}
	if n := RecalculateNormals(m); n > 0 {
		res.Warning = fmt.Errorf("%w: %d of %d vertices", ErrDegenerateNormal, n, len(m.Vertices))
	}
	RecalculateBounds(m)
	return res, nil
}
