// Package terrain turns height grids into triangle meshes and post-processes them
// (normals, bounds, smoothing, placement and merging of tiles).
package terrain

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// Terrain errors.
var (
	ErrInvalidGrid       = errors.New("grid too small to triangulate")
	ErrUnsupportedFilter = errors.New("unsupported smoothing filter")
	ErrInvalidIterations = errors.New("negative smoothing iteration count")

	// ErrDegenerateNormal marks vertices whose accumulated normal had no
	// length. It is never fatal: those vertices get the up vector.
	ErrDegenerateNormal = errors.New("degenerate vertex normal")
)

// Mesh is an indexed triangle mesh built from a height grid.
//
// Vertices, UVs and Normals are parallel slices. Triangles holds index
// triples into Vertices.
type Mesh struct {
	Vertices  []mgl32.Vec3
	UVs       []mgl32.Vec2
	Normals   []mgl32.Vec3
	Triangles []uint32
	Bounds    Bounds

	// Width and Height of the source grid, zero for merged meshes.
	Width  int
	Height int

	// IndexMap maps a grid position (y*Width + x) to its vertex index, or -1
	// for skipped cells. Nil for dense meshes, where the two coincide.
	IndexMap []int32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// VertexIndex returns the vertex index of grid cell (x, y), or -1 when the
// cell was skipped or lies outside the source grid.
func (m *Mesh) VertexIndex(x, y int) int {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return -1
	}
	i := y*m.Width + x
	if m.IndexMap == nil {
		return i
	}
	return int(m.IndexMap[i])
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Size returns the extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// FilterType selects a smoothing algorithm.
type FilterType int

// Smoothing filters.
const (
	Laplacian FilterType = iota
	HC
)

// String returns the config name of the filter.
func (f FilterType) String() string {
	switch f {
	case Laplacian:
		return "laplacian"
	case HC:
		return "hc"
	default:
		return "unknown"
	}
}

// SmoothParams configures a Smooth call.
type SmoothParams struct {
	Filter     FilterType
	Iterations int
	Intensity  float32 // Laplacian blend toward the neighbour average, [0, 1]
	HCAlpha    float32 // HC weight of the original positions, [0, 1]
	HCBeta     float32 // HC weight of a vertex's own correction vs. its neighbours', [0, 1]
}

// DefaultSmoothParams returns the parameters used when nothing is configured.
func DefaultSmoothParams() SmoothParams {
	return SmoothParams{
		Filter:     Laplacian,
		Iterations: 0,
		Intensity:  0.5,
		HCAlpha:    0.5,
		HCBeta:     0.5,
	}
}
