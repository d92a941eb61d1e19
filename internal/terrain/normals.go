package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// minNormalLength is the accumulated normal length below which a vertex is
// treated as degenerate.
const minNormalLength = 1e-12

var up = mgl32.Vec3{0, 1, 0}

// RecalculateNormals recomputes per-vertex normals in place.
//
// Each triangle adds its unnormalised face normal (edge cross product, so
// larger faces weigh more) to its three vertices; the sums are normalised at
// the end. Vertices whose sum has no length, e.g. ones no triangle uses or
// ones only touching collinear triangles, get the up vector. The number of
// such vertices is returned.
func RecalculateNormals(m *Mesh) int {
	acc := make([][3]float64, len(m.Vertices))

	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a, b, c := m.Triangles[i], m.Triangles[i+1], m.Triangles[i+2]
		face := faceNormal(m.Vertices[a], m.Vertices[b], m.Vertices[c])
		for _, v := range [3]uint32{a, b, c} {
			acc[v][0] += face[0]
			acc[v][1] += face[1]
			acc[v][2] += face[2]
		}
	}

	if len(m.Normals) != len(m.Vertices) {
		m.Normals = make([]mgl32.Vec3, len(m.Vertices))
	}

	degenerate := 0
	for i, n := range acc {
		l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l < minNormalLength {
			m.Normals[i] = up
			degenerate++
			continue
		}
		m.Normals[i] = mgl32.Vec3{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
	}
	return degenerate
}

// faceNormal returns (b-a) x (c-a) in double precision.
func faceNormal(a, b, c mgl32.Vec3) [3]float64 {
	e1 := [3]float64{float64(b[0] - a[0]), float64(b[1] - a[1]), float64(b[2] - a[2])}
	e2 := [3]float64{float64(c[0] - a[0]), float64(c[1] - a[1]), float64(c[2] - a[2])}
	return [3]float64{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
}

// RecalculateBounds recomputes the axis-aligned bounding box from the vertex
// positions. An empty mesh gets zero bounds.
func RecalculateBounds(m *Mesh) {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, p := range m.Vertices[1:] {
		updateBounds(&b, p)
	}
	m.Bounds = b
}

func updateBounds(b *Bounds, p mgl32.Vec3) {
	for axis := range 3 {
		if p[axis] < b.Min[axis] {
			b.Min[axis] = p[axis]
		}
		if p[axis] > b.Max[axis] {
			b.Max[axis] = p[axis]
		}
	}
}
