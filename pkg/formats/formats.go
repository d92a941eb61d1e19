// Package formats decodes heightmap images into grids and writes grids back
// out as rasters, colour previews and tile files.
package formats

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format errors.
var (
	ErrNotGrayscale         = errors.New("image is not single-channel grayscale")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrBadTileName          = errors.New("malformed tile name")
	ErrUnknownFormat        = errors.New("unknown image format")
)

// ext returns the lower-cased extension of path, including the dot.
func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
