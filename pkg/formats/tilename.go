package formats

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// TileName returns the base name of tile (x, y), e.g. "tile_2_5".
func TileName(x, y int) string {
	return fmt.Sprintf("tile_%d_%d", x, y)
}

// ParseTileName extracts the tile coordinates from a file name of the form
// "tile_X_Y" with an optional directory and extension.
func ParseTileName(name string) (x, y int, err error) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(base, "_")
	if len(parts) != 3 || parts[0] != "tile" {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTileName, name)
	}
	if x, err = strconv.Atoi(parts[1]); err != nil || x < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTileName, name)
	}
	if y, err = strconv.Atoi(parts[2]); err != nil || y < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTileName, name)
	}
	return x, y, nil
}
