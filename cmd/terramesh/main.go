// terramesh turns grayscale heightmaps into terrain meshes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/terramesh/internal/batch"
	"github.com/Faultbox/terramesh/internal/config"
	"github.com/Faultbox/terramesh/internal/logger"
	"github.com/Faultbox/terramesh/internal/terrain"
	"github.com/Faultbox/terramesh/pkg/formats"
	"github.com/Faultbox/terramesh/pkg/heightmap"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.LoggerFileConfig(), true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "build":
		err = cmdBuild(cfg, args)
	case "resample":
		err = cmdResample(cfg, args)
	case "split":
		err = cmdSplit(cfg, args)
	case "batch":
		err = cmdBatch(cfg, args)
	case "combine":
		err = cmdCombine(cfg, args)
	case "preview":
		err = cmdPreview(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		err = errUsage
	}

	logger.Sync()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// parseArgs parses fs from args and returns the positional arguments. Flags
// may appear before, between or after positionals; everything after "--" is
// positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, errUsage
			}
			return nil, err
		}
		consumed := len(args) - fs.NArg()
		if consumed > 0 && args[consumed-1] == "--" {
			return append(pos, fs.Args()...), nil
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func usage(line string) error {
	fmt.Fprintln(os.Stderr, "Usage: terramesh "+line)
	return errUsage
}

func printUsage() {
	fmt.Println(`terramesh - heightmap to terrain mesh converter

Usage:
  terramesh [global options] <command> [options]

Commands:
  info <heightmap>                     Show grid size, height range and mesh size
  build <heightmap> <out.obj>          Generate a mesh (resample, smooth, normals)
  resample <heightmap> <out>           Rescale a heightmap (-w/-h or -ratio)
  split <heightmap> <dir>              Cut a heightmap into tile_X_Y files
  batch [dir]                          Mesh every tile in a folder
  combine <out.obj> <tile.obj>...      Place tile meshes and merge them
  preview <heightmap> <out>            Render a colour preview
  config [path]                        Print or save the effective config

Global options:
  -config <file>   -debug   -scale <h>   -skip-zero   -filter <laplacian|hc>
  -iterations <n>  -workers <n>          -ratio <r>

Examples:
  terramesh -scale 128 build dem.png dem.obj
  terramesh -filter hc -iterations 5 build dem.tif dem.obj
  terramesh split dem.png tiles -n 4
  terramesh -workers 8 batch tiles -out meshes -combine`)
}

func loadGrid(cfg *config.Config, path string) (*heightmap.Grid, error) {
	g, err := formats.LoadHeightmap(path, cfg.DecodeOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("heightmap loaded",
		zap.String("path", path),
		zap.Int("width", g.Width),
		zap.Int("height", g.Height))
	return g, nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("info <heightmap>")
	}

	g, err := loadGrid(cfg, args[0])
	if err != nil {
		return err
	}
	lo, hi, err := g.MinMax()
	if err != nil {
		return err
	}

	zeros := 0
	for _, v := range g.Samples {
		if v == 0 {
			zeros++
		}
	}

	fmt.Printf("Heightmap: %s\n", args[0])
	fmt.Printf("Size:      %d x %d (%d samples)\n", g.Width, g.Height, g.Len())
	fmt.Printf("Range:     %.4f .. %.4f\n", lo, hi)
	fmt.Printf("Zeros:     %d (%.1f%%)\n", zeros, 100*float64(zeros)/float64(g.Len()))

	w, h := g.Width, g.Height
	if r := cfg.Mesh.ResampleRatio; r > 0 && r != 1 {
		w, h = heightmap.ScaledSize(w, h, r)
	}
	if w >= 2 && h >= 2 {
		fmt.Printf("Mesh:      %d vertices, %d triangles (dense, %dx%d)\n", w*h, 2*(w-1)*(h-1), w, h)
	}
	return nil
}

func cmdBuild(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	gridOut := fs.String("grid", "", "Also write the resampled heightmap here")
	previewOut := fs.String("preview", "", "Also write a colour preview here")
	width := fs.Int("w", 0, "Target grid width")
	height := fs.Int("h", 0, "Target grid height")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	if len(pos) < 2 {
		return usage("build [-w N -h N] [-grid out.png] [-preview out.png] <heightmap> <out.obj>")
	}

	g, err := loadGrid(cfg, pos[0])
	if err != nil {
		return err
	}

	opts, err := cfg.TerrainOptions()
	if err != nil {
		return err
	}
	if *width > 0 {
		opts.TargetWidth = *width
	}
	if *height > 0 {
		opts.TargetHeight = *height
	}

	res, err := terrain.Generate(g, opts)
	if err != nil {
		return err
	}
	if res.Warning != nil {
		logger.Warn("mesh has degenerate normals", zap.Error(res.Warning))
	}

	out := pos[1]
	name := stem(out)
	if err := batch.WriteOBJFile(out, res.Mesh, name); err != nil {
		return err
	}

	if *gridOut != "" {
		if err := formats.SaveRaster(*gridOut, formats.ToGray(res.Grid, false)); err != nil {
			return err
		}
	}
	if *previewOut != "" {
		if err := formats.SaveRaster(*previewOut, formats.Colorize(res.Grid, previewOptions(cfg))); err != nil {
			return err
		}
	}

	size, center := res.Mesh.Bounds.Size(), res.Mesh.Bounds.Center()
	logger.Info("mesh written",
		zap.String("path", out),
		zap.Int("vertices", len(res.Mesh.Vertices)),
		zap.Int("triangles", res.Mesh.TriangleCount()),
		zap.Float32s("size", size[:]),
		zap.Float32s("center", center[:]))
	return nil
}

func cmdResample(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("resample", flag.ContinueOnError)
	width := fs.Int("w", 0, "Target width")
	height := fs.Int("h", 0, "Target height")
	stretch := fs.Bool("stretch", false, "Stretch the output to the full 0-255 range")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	if len(pos) < 2 {
		return usage("resample [-w N] [-h N] [-stretch] <heightmap> <out>")
	}

	g, err := loadGrid(cfg, pos[0])
	if err != nil {
		return err
	}

	var out *heightmap.Grid
	switch {
	case *width > 0 || *height > 0:
		w, h := *width, *height
		if w <= 0 {
			w = g.Width
		}
		if h <= 0 {
			h = g.Height
		}
		out, err = heightmap.Resample(g, w, h)
	case cfg.Mesh.ResampleRatio > 0:
		out, err = heightmap.ScaleByRatio(g, cfg.Mesh.ResampleRatio)
	default:
		return errors.New("resample needs -w/-h or a resample ratio (-ratio)")
	}
	if err != nil {
		return err
	}

	if err := formats.SaveRaster(pos[1], formats.ToGray(out, *stretch)); err != nil {
		return err
	}
	logger.Info("heightmap resampled",
		zap.String("path", pos[1]),
		zap.Int("width", out.Width),
		zap.Int("height", out.Height))
	return nil
}

func cmdSplit(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	n := fs.Int("n", cfg.Tiling.Tiles, "Tiles per side")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	if len(pos) < 2 {
		return usage("split [-n tiles] <heightmap> <dir>")
	}

	ext, err := cfg.RasterExtension()
	if err != nil {
		return err
	}
	g, err := loadGrid(cfg, pos[0])
	if err != nil {
		return err
	}

	tiles, err := batch.WriteTiles(g, *n, pos[1], ext)
	if err != nil {
		return err
	}
	for _, t := range tiles {
		fmt.Println(t.Path)
	}
	return nil
}

func cmdBatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	out := fs.String("out", cfg.Batch.OutputDir, "Output directory")
	pattern := fs.String("pattern", cfg.Batch.Pattern, "Tile file glob")
	combine := fs.Bool("combine", cfg.Tiling.Combine, "Merge all tiles into combined.obj")
	preview := fs.Bool("preview", cfg.Export.Preview, "Write colour previews")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	dir := cfg.Batch.InputDir
	if len(pos) > 0 {
		dir = pos[0]
	}
	if dir == "" {
		return usage("batch [-out dir] [-pattern glob] [-combine] [-preview] <dir>")
	}
	if *out == "" {
		*out = dir
	}

	opts, err := cfg.TerrainOptions()
	if err != nil {
		return err
	}
	rasterExt, err := cfg.RasterExtension()
	if err != nil {
		return err
	}

	tiles, err := batch.Discover(dir, *pattern)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := batch.Run(ctx, batch.Config{
		OutputDir: *out,
		Workers:   cfg.Batch.Workers,
		Mesh:      opts,
		Decode:    cfg.DecodeOptions(),
		RasterExt: rasterExt,
		WriteGrid: cfg.Export.WriteGrid,
		Preview:   *preview,
		SeaLevel:  cfg.Export.SeaLevel,
		Jitter:    cfg.Export.PreviewJitter,
		Seed:      cfg.Export.Seed,
		Manifest:  cfg.Batch.Manifest,
		Combine:   *combine,
		TileSize:  cfg.Tiling.TileSize,
		Overlap:   cfg.Tiling.Overlap,
	}, tiles)
	if summary != nil {
		fmt.Printf("Tiles:   %d\n", len(summary.Results))
		fmt.Printf("Failed:  %d\n", summary.Failed)
		fmt.Printf("Elapsed: %.2fs\n", summary.Elapsed)
		if summary.Combined != "" {
			fmt.Printf("Scene:   %s\n", summary.Combined)
		}
	}
	return err
}

func cmdCombine(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("combine", flag.ContinueOnError)
	size := fs.Float64("size", float64(cfg.Tiling.TileSize), "Tile size in world units")
	overlap := fs.Float64("overlap", float64(cfg.Tiling.Overlap), "Overlap between neighbouring tiles")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	if len(pos) < 2 {
		return usage("combine [-size N] [-overlap N] <out.obj> <tile_X_Y.obj>...")
	}

	m, err := batch.CombineFiles(pos[1:], float32(*size), float32(*overlap))
	if m == nil {
		return err
	}
	if err != nil {
		logger.Warn("some tiles were skipped", zap.Error(err))
	}

	out := pos[0]
	if err := batch.WriteOBJFile(out, m, stem(out)); err != nil {
		return err
	}
	logger.Info("combined mesh written",
		zap.String("path", out),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", m.TriangleCount()))
	return nil
}

func cmdPreview(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	sea := fs.Float64("sea", float64(cfg.Export.SeaLevel), "Normalised sea level (0 disables)")
	jitter := fs.Float64("jitter", float64(cfg.Export.PreviewJitter), "Colour jitter amount")
	seed := fs.Uint64("seed", cfg.Export.Seed, "Jitter seed")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	if len(pos) < 2 {
		return usage("preview [-sea L] [-jitter J] [-seed S] <heightmap> <out.png|out.webp|out.tif>")
	}

	g, err := loadGrid(cfg, pos[0])
	if err != nil {
		return err
	}

	cfg.Export.SeaLevel = float32(*sea)
	cfg.Export.PreviewJitter = float32(*jitter)
	cfg.Export.Seed = *seed
	return formats.SaveRaster(pos[1], formats.Colorize(g, previewOptions(cfg)))
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", args[0])
		return nil
	}
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	fmt.Printf("# default location: %s\n", path)
	return printConfig(cfg)
}

func printConfig(cfg *config.Config) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func previewOptions(cfg *config.Config) formats.PreviewOptions {
	return formats.PreviewOptions{
		SeaLevel: cfg.Export.SeaLevel,
		Jitter:   cfg.Export.PreviewJitter,
		Rand:     rand.New(rand.NewPCG(cfg.Export.Seed, 0)),
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
