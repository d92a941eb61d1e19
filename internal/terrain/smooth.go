package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ParseFilter maps a config name ("laplacian", "hc") to a FilterType.
func ParseFilter(name string) (FilterType, error) {
	switch name {
	case "laplacian", "Laplacian":
		return Laplacian, nil
	case "hc", "HC":
		return HC, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFilter, name)
	}
}

// Smooth runs p.Iterations passes of the chosen filter over the vertex
// positions of m and returns m itself. Normals and bounds are recomputed once
// after the last pass. Zero iterations leave the mesh untouched.
func Smooth(m *Mesh, p SmoothParams) (*Mesh, error) {
	changed, err := smoothPositions(m, p)
	if err != nil {
		return nil, err
	}
	if changed {
		RecalculateNormals(m)
		RecalculateBounds(m)
	}
	return m, nil
}

// smoothPositions filters m.Vertices in place and reports whether any pass ran.
func smoothPositions(m *Mesh, p SmoothParams) (bool, error) {
	if p.Filter != Laplacian && p.Filter != HC {
		return false, fmt.Errorf("%w: %d", ErrUnsupportedFilter, int(p.Filter))
	}
	if p.Iterations < 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidIterations, p.Iterations)
	}
	if p.Iterations == 0 || len(m.Vertices) == 0 {
		return false, nil
	}

	adj := buildAdjacency(len(m.Vertices), m.Triangles)

	// Every pass reads the previous pass's positions only.
	cur := m.Vertices
	next := make([]mgl32.Vec3, len(cur))

	switch p.Filter {
	case Laplacian:
		k := clampUnit(p.Intensity)
		for range p.Iterations {
			laplacianPass(next, cur, adj, k)
			cur, next = next, cur
		}
	case HC:
		orig := make([]mgl32.Vec3, len(cur))
		copy(orig, cur)
		diff := make([]mgl32.Vec3, len(cur))
		alpha, beta := clampUnit(p.HCAlpha), clampUnit(p.HCBeta)
		for range p.Iterations {
			hcPass(next, cur, orig, diff, adj, alpha, beta)
			cur, next = next, cur
		}
	}

	// After an odd number of swaps the result sits in the scratch buffer.
	if &cur[0] != &m.Vertices[0] {
		copy(m.Vertices, cur)
	}
	return true, nil
}

// laplacianPass moves each vertex of src toward the mean of its neighbours by
// factor k and writes the result to dst. Isolated vertices are copied as-is.
func laplacianPass(dst, src []mgl32.Vec3, adj [][]uint32, k float32) {
	for i, ns := range adj {
		if len(ns) == 0 {
			dst[i] = src[i]
			continue
		}
		avg := neighbourMean(src, ns)
		dst[i] = src[i].Add(avg.Sub(src[i]).Mul(k))
	}
}

// hcPass is one iteration of Vollmer's HC-algorithm: a plain Laplacian step
// followed by pushing each vertex back along the difference to the original
// (alpha) and previous (1-alpha) positions, mixed with its neighbours'
// differences by beta.
func hcPass(dst, q, orig, diff []mgl32.Vec3, adj [][]uint32, alpha, beta float32) {
	for i, ns := range adj {
		if len(ns) == 0 {
			dst[i] = q[i]
		} else {
			dst[i] = neighbourMean(q, ns)
		}
		diff[i] = dst[i].Sub(orig[i].Mul(alpha).Add(q[i].Mul(1 - alpha)))
	}

	for i, ns := range adj {
		if len(ns) == 0 {
			continue
		}
		var sum mgl32.Vec3
		for _, j := range ns {
			sum = sum.Add(diff[j])
		}
		correction := diff[i].Mul(beta).Add(sum.Mul((1 - beta) / float32(len(ns))))
		dst[i] = dst[i].Sub(correction)
	}
}

func neighbourMean(pos []mgl32.Vec3, ns []uint32) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, j := range ns {
		sum = sum.Add(pos[j])
	}
	return sum.Mul(1 / float32(len(ns)))
}

// buildAdjacency returns, for every vertex, the distinct vertices it shares a
// triangle edge with.
func buildAdjacency(vertexCount int, triangles []uint32) [][]uint32 {
	adj := make([][]uint32, vertexCount)
	link := func(a, b uint32) {
		if a == b {
			return
		}
		for _, n := range adj[a] {
			if n == b {
				return
			}
		}
		adj[a] = append(adj[a], b)
	}

	for i := 0; i+2 < len(triangles); i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		link(a, b)
		link(b, a)
		link(b, c)
		link(c, b)
		link(c, a)
		link(a, c)
	}
	return adj
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
