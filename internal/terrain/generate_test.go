package terrain

import (
	"errors"
	"testing"

	"github.com/Faultbox/terramesh/pkg/heightmap"
)

func TestGenerateDefaults(t *testing.T) {
	g := filledGrid(t, 8, 6, 0.25)

	res, err := Generate(g, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Grid.Width != 8 || res.Grid.Height != 6 {
		t.Errorf("expected 8x6 grid, got %dx%d", res.Grid.Width, res.Grid.Height)
	}
	if res.Mesh.TriangleCount() != 2*7*5 {
		t.Errorf("expected %d triangles, got %d", 2*7*5, res.Mesh.TriangleCount())
	}
	if res.Warning != nil {
		t.Errorf("expected no warning, got %v", res.Warning)
	}
}

func TestGenerateRatio(t *testing.T) {
	g := filledGrid(t, 16, 16, 0.5)

	opts := DefaultOptions()
	opts.Ratio = 0.5
	opts.HeightScale = 4

	res, err := Generate(g, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Grid.Width != 8 || res.Grid.Height != 8 {
		t.Errorf("expected 8x8 grid, got %dx%d", res.Grid.Width, res.Grid.Height)
	}
	if len(res.Mesh.Vertices) != 64 {
		t.Errorf("expected 64 vertices, got %d", len(res.Mesh.Vertices))
	}
	if y := res.Mesh.Vertices[0][1]; y != 2 {
		t.Errorf("expected scaled height 2, got %v", y)
	}
}

func TestGenerateTargetSize(t *testing.T) {
	g := filledGrid(t, 10, 10, 0.5)

	opts := DefaultOptions()
	opts.TargetWidth = 4
	opts.Ratio = 3 // ignored when a target is set

	res, err := Generate(g, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Grid.Width != 4 || res.Grid.Height != 10 {
		t.Errorf("expected 4x10 grid, got %dx%d", res.Grid.Width, res.Grid.Height)
	}
}

func TestGenerateThresholdAndSkipZero(t *testing.T) {
	g := filledGrid(t, 4, 4, 0.8)
	g.Samples[g.Index(3, 3)] = 0.01

	opts := DefaultOptions()
	opts.Threshold = 0.05
	opts.SkipZero = true

	res, err := Generate(g, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Mesh.Vertices) != 15 {
		t.Errorf("expected thresholded cell to be skipped, got %d vertices", len(res.Mesh.Vertices))
	}
	if g.Samples[g.Index(3, 3)] != 0.01 {
		t.Error("Generate modified its input grid")
	}
}

func TestGenerateDegenerateWarning(t *testing.T) {
	// The lone non-zero corner has no complete quad and gets a fallback normal.
	g, _ := heightmap.FromRows([][]float32{
		{1, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	})

	opts := DefaultOptions()
	opts.SkipZero = true

	res, err := Generate(g, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !errors.Is(res.Warning, ErrDegenerateNormal) {
		t.Errorf("expected ErrDegenerateNormal warning, got %v", res.Warning)
	}
}

func TestGenerateSmooths(t *testing.T) {
	g, _ := heightmap.New(7, 7)
	g.Samples[g.Index(3, 3)] = 1

	opts := DefaultOptions()
	opts.HeightScale = 10
	opts.Smooth = SmoothParams{Filter: Laplacian, Iterations: 2, Intensity: 0.5}

	res, err := Generate(g, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if peak := res.Mesh.Vertices[res.Mesh.VertexIndex(3, 3)][1]; peak >= 10 {
		t.Errorf("expected smoothed peak below 10, got %v", peak)
	}
}

func TestGenerateErrors(t *testing.T) {
	g := filledGrid(t, 4, 4, 0.5)

	opts := DefaultOptions()
	opts.Ratio = 0.1
	if _, err := Generate(g, opts); !errors.Is(err, heightmap.ErrInvalidTargetSize) {
		t.Errorf("expected ErrInvalidTargetSize, got %v", err)
	}

	opts = DefaultOptions()
	opts.Ratio = 0.4 // 4 * 0.4 = 1.6 -> 2, still meshable
	if _, err := Generate(g, opts); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	opts = DefaultOptions()
	opts.TargetWidth = 1
	if _, err := Generate(g, opts); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid, got %v", err)
	}

	opts = DefaultOptions()
	opts.Smooth = SmoothParams{Filter: FilterType(9), Iterations: 1}
	if _, err := Generate(g, opts); !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("expected ErrUnsupportedFilter, got %v", err)
	}
}
