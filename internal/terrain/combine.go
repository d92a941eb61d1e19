package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Placement positions a mesh in a combined scene.
type Placement struct {
	Mesh      *Mesh
	Transform mgl32.Mat4
}

// TilePosition returns the world offset of tile (x, y) in a grid of square
// tiles of the given size. Neighbouring tiles overlap by overlap units, and
// tile rows advance toward -Z.
func TilePosition(x, y int, tileSize, overlap float32) mgl32.Vec3 {
	fx, fy := float32(x), float32(y)
	return mgl32.Vec3{fx*tileSize - fx*overlap, 0, -(fy * tileSize) + fy*overlap}
}

// TileTransform is TilePosition as a translation matrix.
func TileTransform(x, y int, tileSize, overlap float32) mgl32.Mat4 {
	p := TilePosition(x, y, tileSize, overlap)
	return mgl32.Translate3D(p[0], p[1], p[2])
}

// Combine merges the placed meshes into a single new mesh. Positions are
// transformed by each placement, normals by the inverse transpose of its
// linear part so they stay perpendicular under non-uniform scale. Nil meshes are
// skipped. The inputs are not modified.
func Combine(parts []Placement) *Mesh {
	var vertexCount, indexCount int
	for _, p := range parts {
		if p.Mesh == nil {
			continue
		}
		vertexCount += len(p.Mesh.Vertices)
		indexCount += len(p.Mesh.Triangles)
	}

	out := &Mesh{
		Vertices:  make([]mgl32.Vec3, 0, vertexCount),
		UVs:       make([]mgl32.Vec2, 0, vertexCount),
		Normals:   make([]mgl32.Vec3, 0, vertexCount),
		Triangles: make([]uint32, 0, indexCount),
	}

	for _, p := range parts {
		m := p.Mesh
		if m == nil {
			continue
		}
		base := uint32(len(out.Vertices))
		// A singular transform inverts to zero and its normals fall back to up.
		normalMat := p.Transform.Mat3().Inv().Transpose()

		for i, v := range m.Vertices {
			out.Vertices = append(out.Vertices, p.Transform.Mul4x1(v.Vec4(1)).Vec3())

			var uv mgl32.Vec2
			if i < len(m.UVs) {
				uv = m.UVs[i]
			}
			out.UVs = append(out.UVs, uv)

			n := up
			if i < len(m.Normals) {
				n = normalMat.Mul3x1(m.Normals[i])
				if l := n.Len(); l > 0 {
					n = n.Mul(1 / l)
				} else {
					n = up
				}
			}
			out.Normals = append(out.Normals, n)
		}
		for _, idx := range m.Triangles {
			out.Triangles = append(out.Triangles, base+idx)
		}
	}

	RecalculateBounds(out)
	return out
}
