package heightmap

import (
	"errors"
	"fmt"
)

// ErrTileSize is returned when a grid cannot be cut into the requested tiles.
var ErrTileSize = errors.New("invalid tile layout")

// Split cuts g into tiles x tiles equally sized sub-grids, ordered row by row
// (tileY outer, tileX inner). Columns and rows that do not fill a whole tile
// are dropped.
func Split(g *Grid, tiles int) ([]*Grid, error) {
	if tiles < 1 {
		return nil, fmt.Errorf("%w: %d tiles per side", ErrTileSize, tiles)
	}
	tileW := g.Width / tiles
	tileH := g.Height / tiles
	if tileW == 0 || tileH == 0 {
		return nil, fmt.Errorf("%w: %dx%d grid into %d tiles per side", ErrTileSize, g.Width, g.Height, tiles)
	}

	out := make([]*Grid, 0, tiles*tiles)
	for tileY := range tiles {
		for tileX := range tiles {
			tile := &Grid{Width: tileW, Height: tileH, Samples: make([]float32, tileW*tileH)}
			for y := range tileH {
				src := g.Index(tileX*tileW, tileY*tileH+y)
				copy(tile.Samples[y*tileW:(y+1)*tileW], g.Samples[src:src+tileW])
			}
			out = append(out, tile)
		}
	}
	return out, nil
}

// Stitch is the inverse of Split: it lays tiles out row by row, cols tiles
// per row. All tiles must share the same dimensions.
func Stitch(tiles []*Grid, cols int) (*Grid, error) {
	if cols < 1 || len(tiles) == 0 || len(tiles)%cols != 0 {
		return nil, fmt.Errorf("%w: %d tiles in %d columns", ErrTileSize, len(tiles), cols)
	}
	rows := len(tiles) / cols
	tileW, tileH := tiles[0].Width, tiles[0].Height
	for i, t := range tiles {
		if t.Width != tileW || t.Height != tileH {
			return nil, fmt.Errorf("%w: tile %d is %dx%d, want %dx%d", ErrTileSize, i, t.Width, t.Height, tileW, tileH)
		}
	}

	out := &Grid{Width: tileW * cols, Height: tileH * rows}
	out.Samples = make([]float32, out.Width*out.Height)
	for i, t := range tiles {
		baseX := (i % cols) * tileW
		baseY := (i / cols) * tileH
		for y := range tileH {
			dst := out.Index(baseX, baseY+y)
			copy(out.Samples[dst:dst+tileW], t.Samples[y*tileW:(y+1)*tileW])
		}
	}
	return out, nil
}
