package heightmap

import (
	"errors"
	"testing"
)

func sequentialGrid(w, h int) *Grid {
	g, _ := New(w, h)
	for i := range g.Samples {
		g.Samples[i] = float32(i)
	}
	return g
}

func TestSplit(t *testing.T) {
	g := sequentialGrid(4, 4)

	tiles, err := Split(g, 2)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(tiles) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(tiles))
	}

	// Second tile is the top-right quadrant.
	want := []float32{2, 3, 6, 7}
	for i, v := range tiles[1].Samples {
		if v != want[i] {
			t.Errorf("tile 1 sample %d: got %v, want %v", i, v, want[i])
		}
	}
	// Third tile starts on row 2.
	if tiles[2].Samples[0] != 8 {
		t.Errorf("tile 2 first sample: got %v, want 8", tiles[2].Samples[0])
	}
}

func TestSplitDropsRemainder(t *testing.T) {
	g := sequentialGrid(5, 7)

	tiles, err := Split(g, 2)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for i, tile := range tiles {
		if tile.Width != 2 || tile.Height != 3 {
			t.Errorf("tile %d: expected 2x3, got %dx%d", i, tile.Width, tile.Height)
		}
	}
}

func TestSplitInvalid(t *testing.T) {
	g := sequentialGrid(3, 3)
	if _, err := Split(g, 0); !errors.Is(err, ErrTileSize) {
		t.Errorf("expected ErrTileSize for 0 tiles, got %v", err)
	}
	if _, err := Split(g, 4); !errors.Is(err, ErrTileSize) {
		t.Errorf("expected ErrTileSize for tiles larger than grid, got %v", err)
	}
}

func TestSplitStitchRoundTrip(t *testing.T) {
	g := sequentialGrid(6, 9)

	tiles, err := Split(g, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	out, err := Stitch(tiles, 3)
	if err != nil {
		t.Fatalf("Stitch failed: %v", err)
	}
	if out.Width != g.Width || out.Height != g.Height {
		t.Fatalf("expected %dx%d, got %dx%d", g.Width, g.Height, out.Width, out.Height)
	}
	for i := range g.Samples {
		if out.Samples[i] != g.Samples[i] {
			t.Fatalf("sample %d: got %v, want %v", i, out.Samples[i], g.Samples[i])
		}
	}
}

func TestStitchMismatchedTiles(t *testing.T) {
	a := sequentialGrid(2, 2)
	b := sequentialGrid(3, 2)
	if _, err := Stitch([]*Grid{a, b}, 2); !errors.Is(err, ErrTileSize) {
		t.Errorf("expected ErrTileSize, got %v", err)
	}
	if _, err := Stitch([]*Grid{a, a, a}, 2); !errors.Is(err, ErrTileSize) {
		t.Errorf("expected ErrTileSize for incomplete row, got %v", err)
	}
}
