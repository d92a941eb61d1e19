package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/terramesh/internal/logger"
	"github.com/Faultbox/terramesh/internal/terrain"
	"github.com/Faultbox/terramesh/pkg/formats"
)

// Config holds all shared settings for a batch run.
type Config struct {
	OutputDir string
	Workers   int // 0 uses runtime.NumCPU()

	Mesh   terrain.Options
	Decode formats.DecodeOptions

	// RasterExt (".png", ".tif", ".webp") is the format of the raster
	// outputs; empty means ".png".
	RasterExt string

	// WriteGrid saves each tile's resampled grid as <tile>_grid<ext>.
	WriteGrid bool

	// Preview writes <tile>_preview<ext> colour renders. Each tile's jitter
	// source is seeded from Seed and its index.
	Preview  bool
	SeaLevel float32
	Jitter   float32
	Seed     uint64

	Manifest bool // write manifest.json

	// Combine merges all successful tiles into combined.obj, placed on a
	// grid of TileSize with Overlap between neighbours.
	Combine  bool
	TileSize float32
	Overlap  float32
}

// Result holds the outcome of processing one tile.
type Result struct {
	Tile      string  `json:"tile"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Source    string  `json:"source"`
	Mesh      string  `json:"mesh,omitempty"`
	Grid      string  `json:"grid,omitempty"`
	Preview   string  `json:"preview,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Vertices  int     `json:"vertices,omitempty"`
	Triangles int     `json:"triangles,omitempty"`
	Warning   string  `json:"warning,omitempty"`
	Error     string  `json:"error,omitempty"`
	Millis    float64 `json:"millis"`

	err  error
	mesh *terrain.Mesh
}

// Success reports whether the tile's mesh was written.
func (r Result) Success() bool {
	return r.Error == ""
}

// Summary is the outcome of a whole run.
type Summary struct {
	Results  []Result `json:"tiles"`
	Failed   int      `json:"failed"`
	Combined string   `json:"combined,omitempty"`
	Elapsed  float64  `json:"elapsed_seconds"`
}

// Run processes tiles on a worker pool. A failing tile never stops the
// others; all failures come back aggregated in the error, and the summary
// is always returned. Cancelling ctx stops handing out tiles; tiles not
// started are reported as failed with the context error.
func Run(ctx context.Context, cfg Config, tiles []Tile) (*Summary, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	total := len(tiles)
	results := make([]Result, total)
	started := make([]bool, total)
	var processed atomic.Int64
	start := time.Now()

	logger.Info("batch started",
		zap.Int("tiles", total),
		zap.Int("workers", workers),
		zap.String("output", cfg.OutputDir))

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				started[idx] = true
				results[idx] = processTile(cfg, tiles[idx], idx)
				n := processed.Add(1)
				logger.Debug("tile done",
					zap.String("tile", tiles[idx].Name),
					zap.Int64("done", n),
					zap.Int("total", total))
			}
		}()
	}

send:
	for i := range tiles {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	summary := &Summary{Results: results}
	var errs error
	for i, r := range results {
		if !started[i] {
			t := tiles[i]
			cause := context.Cause(ctx)
			results[i] = Result{Tile: t.Name, X: t.X, Y: t.Y, Source: t.Path, Error: cause.Error(), err: cause}
			r = results[i]
		}
		if !r.Success() {
			summary.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Tile, r.err))
		}
	}

	if cfg.Combine && ctx.Err() == nil {
		path, err := combine(cfg, results)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		summary.Combined = path
	}
	for i := range results {
		results[i].mesh = nil
	}

	summary.Elapsed = time.Since(start).Seconds()
	if cfg.Manifest {
		if err := WriteManifest(filepath.Join(cfg.OutputDir, "manifest.json"), summary); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("writing manifest: %w", err))
		}
	}

	logger.Info("batch finished",
		zap.Int("tiles", total),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", time.Since(start)))

	return summary, errs
}

func processTile(cfg Config, t Tile, idx int) Result {
	start := time.Now()
	res := Result{Tile: t.Name, X: t.X, Y: t.Y, Source: t.Path}
	fail := func(err error) Result {
		res.Error = err.Error()
		res.err = err
		res.Millis = msSince(start)
		logger.Error("tile failed", zap.String("tile", t.Name), zap.Error(err))
		return res
	}

	grid, err := formats.LoadHeightmap(t.Path, cfg.Decode)
	if err != nil {
		return fail(err)
	}

	out, err := terrain.Generate(grid, cfg.Mesh)
	if err != nil {
		return fail(err)
	}
	if out.Warning != nil {
		res.Warning = out.Warning.Error()
		logger.Warn("degenerate normals", zap.String("tile", t.Name), zap.Error(out.Warning))
	}

	res.Mesh = filepath.Join(cfg.OutputDir, t.Name+".obj")
	if err := WriteOBJFile(res.Mesh, out.Mesh, t.Name); err != nil {
		return fail(err)
	}

	ext := cfg.RasterExt
	if ext == "" {
		ext = ".png"
	}
	if cfg.WriteGrid {
		res.Grid = filepath.Join(cfg.OutputDir, t.Name+"_grid"+ext)
		if err := formats.SaveRaster(res.Grid, formats.ToGray(out.Grid, false)); err != nil {
			return fail(err)
		}
	}

	if cfg.Preview {
		res.Preview = filepath.Join(cfg.OutputDir, t.Name+"_preview"+ext)
		img := formats.Colorize(out.Grid, formats.PreviewOptions{
			SeaLevel: cfg.SeaLevel,
			Jitter:   cfg.Jitter,
			Rand:     rand.New(rand.NewPCG(cfg.Seed, uint64(idx))),
		})
		if err := formats.SaveRaster(res.Preview, img); err != nil {
			return fail(err)
		}
	}

	res.Width, res.Height = out.Grid.Width, out.Grid.Height
	res.Vertices = len(out.Mesh.Vertices)
	res.Triangles = out.Mesh.TriangleCount()
	res.Millis = msSince(start)
	if cfg.Combine {
		res.mesh = out.Mesh
	}

	logger.Info("tile meshed",
		zap.String("tile", t.Name),
		zap.Int("vertices", res.Vertices),
		zap.Int("triangles", res.Triangles),
		zap.Duration("took", time.Since(start)))
	return res
}

func combine(cfg Config, results []Result) (string, error) {
	parts := make([]terrain.Placement, 0, len(results))
	for _, r := range results {
		if r.mesh == nil {
			continue
		}
		parts = append(parts, terrain.Placement{
			Mesh:      r.mesh,
			Transform: terrain.TileTransform(r.X, r.Y, cfg.TileSize, cfg.Overlap),
		})
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("combining: %w", ErrNoTiles)
	}

	path := filepath.Join(cfg.OutputDir, "combined.obj")
	if err := WriteOBJFile(path, terrain.Combine(parts), "combined"); err != nil {
		return "", err
	}
	logger.Info("combined mesh written", zap.String("path", path), zap.Int("tiles", len(parts)))
	return path, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
