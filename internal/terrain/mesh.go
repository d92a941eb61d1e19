package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terramesh/pkg/heightmap"
)

// Build triangulates g into a mesh.
//
// Grid cell (x, y) becomes the vertex (y, height*heightScale, x): grid rows run
// along world X, columns along world Z and height goes up Y. UVs are
// (x/Width, y/Height).
//
// With skipZero set, cells whose sample is exactly 0 get no vertex, and a quad
// only produces triangles when all four of its corners have one. Sparse masks
// therefore lose the quads along their edges.
func Build(g *heightmap.Grid, heightScale float32, skipZero bool) (*Mesh, error) {
	m, err := build(g, heightScale, skipZero)
	if err != nil {
		return nil, err
	}
	RecalculateNormals(m)
	RecalculateBounds(m)
	return m, nil
}

// build assembles vertices, UVs and triangles. Normals and bounds are left
// for the caller.
func build(g *heightmap.Grid, heightScale float32, skipZero bool) (*Mesh, error) {
	width, height := g.Width, g.Height
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, width, height)
	}

	m := &Mesh{
		Width:     width,
		Height:    height,
		Vertices:  make([]mgl32.Vec3, 0, width*height),
		UVs:       make([]mgl32.Vec2, 0, width*height),
		Triangles: make([]uint32, 0, (width-1)*(height-1)*6),
	}
	if skipZero {
		m.IndexMap = make([]int32, width*height)
	}

	for y := range height {
		for x := range width {
			h := g.At(x, y)
			if skipZero {
				if h == 0 {
					m.IndexMap[y*width+x] = -1
					continue
				}
				m.IndexMap[y*width+x] = int32(len(m.Vertices))
			}
			m.Vertices = append(m.Vertices, mgl32.Vec3{float32(y), h * heightScale, float32(x)})
			m.UVs = append(m.UVs, mgl32.Vec2{float32(x) / float32(width), float32(y) / float32(height)})
		}
	}

	for y := range height - 1 {
		for x := range width - 1 {
			bottomLeft := y*width + x
			bottomRight := bottomLeft + 1
			topLeft := bottomLeft + width
			topRight := topLeft + 1

			if skipZero {
				bl, br := m.IndexMap[bottomLeft], m.IndexMap[bottomRight]
				tl, tr := m.IndexMap[topLeft], m.IndexMap[topRight]
				if bl < 0 || br < 0 || tl < 0 || tr < 0 {
					continue
				}
				bottomLeft, bottomRight = int(bl), int(br)
				topLeft, topRight = int(tl), int(tr)
			}

			m.Triangles = append(m.Triangles,
				uint32(bottomLeft), uint32(topRight), uint32(topLeft),
				uint32(bottomLeft), uint32(bottomRight), uint32(topRight),
			)
		}
	}

	m.Normals = make([]mgl32.Vec3, len(m.Vertices))
	return m, nil
}
