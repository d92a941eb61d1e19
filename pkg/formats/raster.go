package formats

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/terramesh/pkg/heightmap"
)

// ToGray renders g as an 8-bit gray image. Samples are clamped to [0, 1];
// with stretch set they are first rescaled so the grid's min maps to 0 and
// its max to 255.
func ToGray(g *heightmap.Grid, stretch bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	if g.Len() == 0 {
		return img
	}

	var lo, scale float32 = 0, 1
	if stretch {
		l, h, _ := g.MinMax()
		if h > l {
			lo, scale = l, 1/(h-l)
		} else {
			lo, scale = l, 0
		}
	}

	for i, v := range g.Samples {
		v = (v - lo) * scale
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		img.Pix[i] = uint8(math.Round(float64(v) * 255))
	}
	return img
}

// EncodeRaster writes img to w in the format named by extension: ".png",
// ".tif"/".tiff" (deflate compressed) or ".webp" (lossless).
func EncodeRaster(w io.Writer, img image.Image, extension string) error {
	switch extension {
	case ".png":
		return png.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case ".webp":
		return nativewebp.Encode(w, toNRGBA(img), nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, extension)
	}
}

// SaveRaster writes img to path, choosing the encoding from its extension.
func SaveRaster(path string, img image.Image) error {
	e := ext(path)
	switch e {
	case ".png", ".tif", ".tiff", ".webp":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, e)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating raster file: %w", err)
	}
	if err := EncodeRaster(f, img, e); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
