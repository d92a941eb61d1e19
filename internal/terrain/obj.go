package terrain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidOBJ is returned for OBJ input ReadOBJ cannot interpret.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// WriteOBJ writes m as a Wavefront OBJ with positions, UVs and normals.
// Faces reference all three attributes with the same (1-based) index.
func WriteOBJ(w io.Writer, m *Mesh, name string) error {
	bw := bufio.NewWriter(w)

	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(v[0]), ftoa(v[1]), ftoa(v[2]))
	}
	for i := range m.Vertices {
		var uv mgl32.Vec2
		if i < len(m.UVs) {
			uv = m.UVs[i]
		}
		fmt.Fprintf(bw, "vt %s %s\n", ftoa(uv[0]), ftoa(uv[1]))
	}
	for i := range m.Vertices {
		n := up
		if i < len(m.Normals) {
			n = m.Normals[i]
		}
		fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(n[0]), ftoa(n[1]), ftoa(n[2]))
	}
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a, b, c := m.Triangles[i]+1, m.Triangles[i+1]+1, m.Triangles[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// ReadOBJ reads a triangulated OBJ as written by WriteOBJ. Only the vertex
// index of each face corner is used; UVs and normals are taken per vertex in
// file order. Polygons with more than three corners are fanned into
// triangles. Bounds are recomputed; normals are recomputed when the file has
// none.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			m.Vertices = append(m.Vertices, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			m.UVs = append(m.UVs, mgl32.Vec2{v[0], v[1]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			m.Normals = append(m.Normals, mgl32.Vec3{v[0], v[1], v[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face with %d corners", ErrInvalidOBJ, line, len(fields)-1)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, f := range fields[1:] {
				idx, err := parseFaceIndex(f, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				m.Triangles = append(m.Triangles, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(m.UVs) != len(m.Vertices) {
		m.UVs = make([]mgl32.Vec2, len(m.Vertices))
	}
	if len(m.Normals) != len(m.Vertices) {
		m.Normals = nil
		RecalculateNormals(m)
	}
	RecalculateBounds(m)
	return m, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceIndex parses the vertex part of "v", "v/vt", "v//vn" or "v/vt/vn".
// Negative indices count back from the last vertex read so far.
func parseFaceIndex(corner string, vertexCount int) (uint32, error) {
	vs, _, _ := strings.Cut(corner, "/")
	i, err := strconv.Atoi(vs)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i = vertexCount + i + 1
	}
	if i < 1 || i > vertexCount {
		return 0, fmt.Errorf("vertex index %s out of range (have %d)", vs, vertexCount)
	}
	return uint32(i - 1), nil
}
