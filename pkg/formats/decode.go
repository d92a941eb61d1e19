package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/terramesh/pkg/heightmap"
)

// DecodeOptions controls how images become grids.
type DecodeOptions struct {
	// ConvertColor accepts colour images by taking their luma instead of
	// failing with ErrNotGrayscale.
	ConvertColor bool
}

var (
	pngMagic    = []byte("\x89PNG\r\n\x1a\n")
	tiffMagicLE = []byte("II*\x00")
	tiffMagicBE = []byte("MM\x00*")
)

// DecodeHeightmap decodes a PNG or TIFF image from r into a grid, picking the
// decoder from the leading magic bytes. TGA has no magic number, so it is
// only reachable through LoadHeightmap.
//
// image.Decode is not used: the tga package registers itself with an empty
// magic string, which matches any input.
func DecodeHeightmap(r io.Reader, opts DecodeOptions) (*heightmap.Grid, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(pngMagic))
	if err != nil && len(head) < len(tiffMagicLE) {
		return nil, fmt.Errorf("decoding heightmap: %w", ErrUnknownFormat)
	}

	var decode func(io.Reader) (image.Image, error)
	switch {
	case bytes.HasPrefix(head, pngMagic):
		decode = png.Decode
	case bytes.HasPrefix(head, tiffMagicLE), bytes.HasPrefix(head, tiffMagicBE):
		decode = tiff.Decode
	default:
		return nil, fmt.Errorf("decoding heightmap: %w", ErrUnknownFormat)
	}

	img, err := decode(br)
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap: %w", err)
	}
	return GridFromImage(img, opts)
}

// LoadHeightmap reads and decodes a heightmap file, picking the decoder by
// extension (.png, .tif, .tiff, .tga).
func LoadHeightmap(path string, opts DecodeOptions) (*heightmap.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading heightmap file: %w", err)
	}

	var decode func(io.Reader) (image.Image, error)
	switch ext(path) {
	case ".png":
		decode = png.Decode
	case ".tif", ".tiff":
		decode = tiff.Decode
	case ".tga":
		decode = tga.Decode
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext(path))
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return GridFromImage(img, opts)
}

// GridFromImage converts img into a grid with samples in [0, 1].
//
// 8-bit gray maps v to v/255 and 16-bit gray to v/65535. Grid row y is image
// row y counted from the top.
func GridFromImage(img image.Image, opts DecodeOptions) (*heightmap.Grid, error) {
	b := img.Bounds()
	g, err := heightmap.New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := range g.Height {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+g.Width]
			for x, v := range row {
				g.Samples[y*g.Width+x] = float32(v) / 255
			}
		}
	case *image.Gray16:
		for y := range g.Height {
			for x := range g.Width {
				v := src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
				g.Samples[y*g.Width+x] = float32(v) / 65535
			}
		}
	default:
		if !opts.ConvertColor {
			return nil, fmt.Errorf("%w: %T", ErrNotGrayscale, img)
		}
		for y := range g.Height {
			for x := range g.Width {
				c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				g.Samples[y*g.Width+x] = float32(c.Y) / 65535
			}
		}
	}
	return g, nil
}
