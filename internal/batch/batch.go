// Package batch generates meshes for a folder of heightmap tiles on a worker
// pool, and lays the results out as one scene.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/terramesh/internal/logger"
	"github.com/Faultbox/terramesh/internal/terrain"
	"github.com/Faultbox/terramesh/pkg/formats"
	"github.com/Faultbox/terramesh/pkg/heightmap"
)

// ErrNoTiles is returned when a folder holds no tile files.
var ErrNoTiles = errors.New("no tiles found")

// Tile is one heightmap tile on disk.
type Tile struct {
	Path string
	Name string // base name without extension, e.g. "tile_2_5"
	X, Y int
}

// Discover returns the files in dir matching pattern whose names parse as
// tile coordinates, sorted row by row. Matching files with other names are
// logged and skipped.
func Discover(dir, pattern string) ([]Tile, error) {
	if pattern == "" {
		pattern = "tile_*_*.png"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("listing tiles: %w", err)
	}

	var tiles []Tile
	for _, path := range matches {
		x, y, err := formats.ParseTileName(path)
		if err != nil {
			logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			continue
		}
		tiles = append(tiles, Tile{Path: path, Name: formats.TileName(x, y), X: x, Y: y})
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("%w in %s matching %q", ErrNoTiles, dir, pattern)
	}

	sortTiles(tiles)
	return tiles, nil
}

func sortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
}

// WriteTiles splits g into n x n tiles and writes each as an 8-bit gray
// raster named tile_X_Y<ext> in dir.
func WriteTiles(g *heightmap.Grid, n int, dir, ext string) ([]Tile, error) {
	parts, err := heightmap.Split(g, n)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	tiles := make([]Tile, 0, len(parts))
	for i, part := range parts {
		x, y := i%n, i/n
		name := formats.TileName(x, y)
		path := filepath.Join(dir, name+ext)
		if err := formats.SaveRaster(path, formats.ToGray(part, false)); err != nil {
			return nil, err
		}
		tiles = append(tiles, Tile{Path: path, Name: name, X: x, Y: y})
	}
	return tiles, nil
}

// CombineFiles reads tile OBJ files, places each by the coordinates in its
// name and merges them into one mesh. Every unreadable file is reported;
// the rest are still combined.
func CombineFiles(paths []string, tileSize, overlap float32) (*terrain.Mesh, error) {
	tiles := make([]Tile, 0, len(paths))
	var errs error
	for _, path := range paths {
		x, y, err := formats.ParseTileName(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		tiles = append(tiles, Tile{Path: path, Name: formats.TileName(x, y), X: x, Y: y})
	}
	sortTiles(tiles)

	parts := make([]terrain.Placement, 0, len(tiles))
	for _, t := range tiles {
		m, err := readOBJFile(t.Path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		parts = append(parts, terrain.Placement{Mesh: m, Transform: terrain.TileTransform(t.X, t.Y, tileSize, overlap)})
	}
	if len(parts) == 0 {
		return nil, multierr.Append(errs, ErrNoTiles)
	}
	return terrain.Combine(parts), errs
}

func readOBJFile(path string) (*terrain.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return terrain.ReadOBJ(f)
}

// WriteOBJFile writes m to path as a Wavefront OBJ object called name.
func WriteOBJFile(path string, m *terrain.Mesh, name string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := terrain.WriteOBJ(f, m, name); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
