package batch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/terramesh/internal/logger"
	"github.com/Faultbox/terramesh/internal/terrain"
	"github.com/Faultbox/terramesh/pkg/formats"
	"github.com/Faultbox/terramesh/pkg/heightmap"
)

// observeLogs routes the global logger into memory for the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	t.Cleanup(restore)
	return logs
}

// createTestHeightmap returns a w x h ramp rising along both axes.
func createTestHeightmap(t *testing.T, w, h int) *heightmap.Grid {
	t.Helper()
	g, err := heightmap.New(w, h)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for y := range h {
		for x := range w {
			g.Samples[g.Index(x, y)] = float32(x+y) / float32(w+h)
		}
	}
	return g
}

func writeColorPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func testConfig(out string) Config {
	opts := terrain.DefaultOptions()
	opts.HeightScale = 10
	return Config{
		OutputDir: out,
		Workers:   2,
		Mesh:      opts,
		Manifest:  true,
		TileSize:  8,
		Overlap:   1,
	}
}

func TestWriteTilesAndDiscover(t *testing.T) {
	observeLogs(t)
	dir := t.TempDir()

	written, err := WriteTiles(createTestHeightmap(t, 17, 16), 2, dir, ".png")
	if err != nil {
		t.Fatalf("WriteTiles failed: %v", err)
	}
	if len(written) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(written))
	}

	// Noise the discovery has to skip.
	os.WriteFile(filepath.Join(dir, "tile_x_1.png"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	tiles, err := Discover(dir, "")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(tiles) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(tiles))
	}
	want := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, w := range want {
		if tiles[i].X != w[0] || tiles[i].Y != w[1] {
			t.Errorf("tile %d: got (%d, %d), want %v", i, tiles[i].X, tiles[i].Y, w)
		}
	}

	g, err := formats.LoadHeightmap(tiles[3].Path, formats.DecodeOptions{})
	if err != nil {
		t.Fatalf("LoadHeightmap failed: %v", err)
	}
	if g.Width != 8 || g.Height != 8 {
		t.Errorf("expected 8x8 tile (remainder dropped), got %dx%d", g.Width, g.Height)
	}
}

func TestDiscoverEmpty(t *testing.T) {
	observeLogs(t)
	if _, err := Discover(t.TempDir(), "tile_*_*.png"); !errors.Is(err, ErrNoTiles) {
		t.Errorf("expected ErrNoTiles, got %v", err)
	}
}

func TestRun(t *testing.T) {
	logs := observeLogs(t)
	in, out := t.TempDir(), t.TempDir()

	tiles, err := WriteTiles(createTestHeightmap(t, 16, 16), 2, in, ".png")
	if err != nil {
		t.Fatalf("WriteTiles failed: %v", err)
	}

	cfg := testConfig(out)
	cfg.RasterExt = ".tif"
	cfg.WriteGrid = true
	cfg.Preview = true
	cfg.Combine = true

	summary, err := Run(context.Background(), cfg, tiles)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 0 || len(summary.Results) != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for _, r := range summary.Results {
		if !r.Success() {
			t.Errorf("%s failed: %s", r.Tile, r.Error)
		}
		if r.Vertices != 64 || r.Triangles != 2*7*7 {
			t.Errorf("%s: %d vertices, %d triangles", r.Tile, r.Vertices, r.Triangles)
		}
		for _, p := range []string{r.Mesh, r.Grid, r.Preview} {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("%s: missing output %s", r.Tile, p)
			}
		}
	}

	combined, err := readOBJFile(summary.Combined)
	if err != nil {
		t.Fatalf("reading combined mesh: %v", err)
	}
	if len(combined.Vertices) != 4*64 {
		t.Errorf("expected %d combined vertices, got %d", 4*64, len(combined.Vertices))
	}
	// Tile (1, 1) sits at (7, 0, -7); its vertices span 7 units on x and z.
	if combined.Bounds.Max[0] != 14 || combined.Bounds.Min[2] != -7 {
		t.Errorf("unexpected combined bounds %v", combined.Bounds)
	}

	manifest, err := ReadManifest(filepath.Join(out, "manifest.json"))
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if len(manifest.Results) != 4 || manifest.Combined != summary.Combined {
		t.Errorf("unexpected manifest %+v", manifest)
	}

	if n := logs.FilterMessage("tile meshed").Len(); n != 4 {
		t.Errorf("expected 4 'tile meshed' entries, got %d", n)
	}
}

func TestRunKeepsGoingOnFailure(t *testing.T) {
	logs := observeLogs(t)
	in, out := t.TempDir(), t.TempDir()

	tiles, err := WriteTiles(createTestHeightmap(t, 12, 12), 2, in, ".png")
	if err != nil {
		t.Fatalf("WriteTiles failed: %v", err)
	}
	writeColorPNG(t, tiles[1].Path)

	summary, err := Run(context.Background(), testConfig(out), tiles)
	if !errors.Is(err, formats.ErrNotGrayscale) {
		t.Fatalf("expected ErrNotGrayscale in %v", err)
	}
	if len(multierr.Errors(err)) != 1 {
		t.Errorf("expected exactly one error, got %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", summary.Failed)
	}
	for i, r := range summary.Results {
		if (i == 1) == r.Success() {
			t.Errorf("tile %d: success=%v, error=%q", i, r.Success(), r.Error)
		}
	}
	if logs.FilterMessage("tile failed").Len() != 1 {
		t.Error("expected the failure to be logged")
	}

	manifest, err := ReadManifest(filepath.Join(out, "manifest.json"))
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if manifest.Failed != 1 || manifest.Results[1].Error == "" {
		t.Errorf("manifest does not record the failure: %+v", manifest.Results[1])
	}
}

func TestRunCanceled(t *testing.T) {
	observeLogs(t)
	in, out := t.TempDir(), t.TempDir()

	tiles, err := WriteTiles(createTestHeightmap(t, 12, 12), 3, in, ".png")
	if err != nil {
		t.Fatalf("WriteTiles failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(out)
	cfg.Combine = true
	summary, err := Run(ctx, cfg, tiles)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Failed != len(tiles) {
		t.Errorf("expected all %d tiles to fail, got %d", len(tiles), summary.Failed)
	}
	if summary.Combined != "" {
		t.Errorf("expected no combined mesh, got %s", summary.Combined)
	}
}

func TestCombineFiles(t *testing.T) {
	dir := t.TempDir()

	g := createTestHeightmap(t, 3, 3)
	m, err := terrain.Build(g, 1, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, name := range []string{"tile_0_0", "tile_1_0"} {
		if err := WriteOBJFile(filepath.Join(dir, name+".obj"), m, name); err != nil {
			t.Fatalf("WriteOBJFile failed: %v", err)
		}
	}
	os.WriteFile(filepath.Join(dir, "tile_0_1.obj"), []byte("f 1 2 3\n"), 0644)

	paths, _ := filepath.Glob(filepath.Join(dir, "*.obj"))
	paths = append(paths, filepath.Join(dir, "extra.obj"))

	combined, err := CombineFiles(paths, 2, 0)
	if combined == nil {
		t.Fatalf("expected a partial result, got error %v", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected 2 errors (bad name, bad OBJ), got %d: %v", n, err)
	}
	if !errors.Is(err, formats.ErrBadTileName) || !errors.Is(err, terrain.ErrInvalidOBJ) {
		t.Errorf("unexpected errors %v", err)
	}
	if len(combined.Vertices) != 18 {
		t.Errorf("expected 18 vertices, got %d", len(combined.Vertices))
	}
	if combined.Bounds.Max[0] != 4 {
		t.Errorf("expected second tile shifted by 2 on x, got max %v", combined.Bounds.Max)
	}

	if _, err := CombineFiles(nil, 2, 0); !errors.Is(err, ErrNoTiles) {
		t.Errorf("expected ErrNoTiles, got %v", err)
	}
}
