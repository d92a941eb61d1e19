package heightmap

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func randomGrid(r *rand.Rand, w, h int, lo, hi float32) *Grid {
	g, _ := New(w, h)
	for i := range g.Samples {
		g.Samples[i] = lo + r.Float32()*(hi-lo)
	}
	return g
}

func TestResampleIdentity(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	sizes := [][2]int{{2, 2}, {3, 5}, {7, 4}, {16, 16}, {33, 17}}

	for _, s := range sizes {
		g := randomGrid(r, s[0], s[1], 0, 1)
		out, err := Resample(g, g.Width, g.Height)
		if err != nil {
			t.Fatalf("Resample %dx%d failed: %v", s[0], s[1], err)
		}
		for i := range g.Samples {
			if d := math.Abs(float64(out.Samples[i] - g.Samples[i])); d > 1e-6 {
				t.Fatalf("%dx%d sample %d: got %v, want %v", s[0], s[1], i, out.Samples[i], g.Samples[i])
			}
		}
	}
}

func TestResampleClampsOutput(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	g := randomGrid(r, 9, 6, -2, 3)

	targets := [][2]int{{9, 6}, {4, 4}, {20, 11}, {1, 1}, {1, 8}}
	for _, tt := range targets {
		out, err := Resample(g, tt[0], tt[1])
		if err != nil {
			t.Fatalf("Resample to %dx%d failed: %v", tt[0], tt[1], err)
		}
		if out.Width != tt[0] || out.Height != tt[1] {
			t.Errorf("expected %dx%d, got %dx%d", tt[0], tt[1], out.Width, out.Height)
		}
		for i, v := range out.Samples {
			if v < 0 || v > 1 {
				t.Fatalf("%dx%d sample %d = %v outside [0, 1]", tt[0], tt[1], i, v)
			}
		}
	}
}

func TestResampleUpsampleMidpoints(t *testing.T) {
	// 2x2 -> 3x3 puts the new samples exactly halfway between the old ones.
	g, _ := FromRows([][]float32{
		{0.0, 0.4},
		{0.8, 1.0},
	})

	out, err := Resample(g, 3, 3)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	want := [][]float32{
		{0.0, 0.2, 0.4},
		{0.4, 0.55, 0.7},
		{0.8, 0.9, 1.0},
	}
	for y, row := range want {
		for x, w := range row {
			if got := out.At(x, y); math.Abs(float64(got-w)) > 1e-6 {
				t.Errorf("(%d, %d): got %v, want %v", x, y, got, w)
			}
		}
	}
}

func TestResampleNonSquareOrientation(t *testing.T) {
	// Height grows along x only; a transposed implementation would put the
	// ramp on the y axis instead.
	g, _ := FromRows([][]float32{
		{0, 0.5, 1},
		{0, 0.5, 1},
	})

	out, err := Resample(g, 5, 2)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	want := []float32{0, 0.25, 0.5, 0.75, 1}
	for y := range 2 {
		for x, w := range want {
			if got := out.At(x, y); math.Abs(float64(got-w)) > 1e-6 {
				t.Errorf("(%d, %d): got %v, want %v", x, y, got, w)
			}
		}
	}
}

func TestResampleSinglePoint(t *testing.T) {
	g, _ := FromRows([][]float32{
		{0.3, 0.9},
		{0.6, 0.1},
	})

	out, err := Resample(g, 1, 1)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if out.Samples[0] != 0.3 {
		t.Errorf("expected corner sample 0.3, got %v", out.Samples[0])
	}
}

func TestResampleInvalidTarget(t *testing.T) {
	g, _ := New(4, 4)

	for _, tt := range [][2]int{{0, 4}, {4, 0}, {-3, 2}} {
		if _, err := Resample(g, tt[0], tt[1]); !errors.Is(err, ErrInvalidTargetSize) {
			t.Errorf("Resample(%d, %d): expected ErrInvalidTargetSize, got %v", tt[0], tt[1], err)
		}
	}
}

func TestResampleEmptySource(t *testing.T) {
	g, _ := New(0, 0)
	if _, err := Resample(g, 2, 2); !errors.Is(err, ErrEmptyGrid) {
		t.Errorf("expected ErrEmptyGrid, got %v", err)
	}
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h  int
		ratio float64
		wantW int
		wantH int
	}{
		{512, 512, 0.5, 256, 256},
		{512, 256, 2, 1024, 512},
		{5, 3, 0.5, 2, 2}, // 2.5 -> 2, 1.5 -> 2
		{7, 7, 1, 7, 7},
	}
	for _, tt := range tests {
		w, h := ScaledSize(tt.w, tt.h, tt.ratio)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("ScaledSize(%d, %d, %v) = %dx%d, want %dx%d", tt.w, tt.h, tt.ratio, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestScaleByRatio(t *testing.T) {
	g, _ := New(8, 4)
	out, err := ScaleByRatio(g, 0.5)
	if err != nil {
		t.Fatalf("ScaleByRatio failed: %v", err)
	}
	if out.Width != 4 || out.Height != 2 {
		t.Errorf("expected 4x2, got %dx%d", out.Width, out.Height)
	}

	if _, err := ScaleByRatio(g, 0.01); !errors.Is(err, ErrInvalidTargetSize) {
		t.Errorf("expected ErrInvalidTargetSize for tiny ratio, got %v", err)
	}
}
