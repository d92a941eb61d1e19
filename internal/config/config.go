// Package config handles terramesh configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/Faultbox/terramesh/internal/logger"
	"github.com/Faultbox/terramesh/internal/terrain"
	"github.com/Faultbox/terramesh/pkg/formats"
)

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all pipeline settings.
type Config struct {
	Mesh      MeshConfig      `yaml:"mesh"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Decode    DecodeConfig    `yaml:"decode"`
	Batch     BatchConfig     `yaml:"batch"`
	Tiling    TilingConfig    `yaml:"tiling"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MeshConfig holds grid preparation and triangulation settings.
type MeshConfig struct {
	HeightScale   float32 `yaml:"height_scale"`
	SkipZero      bool    `yaml:"skip_zero"`
	ResampleRatio float64 `yaml:"resample_ratio"` // 0 or 1 keeps the source size
	TargetWidth   int     `yaml:"target_width"`   // overrides the ratio when set
	TargetHeight  int     `yaml:"target_height"`
	Threshold     float32 `yaml:"threshold"` // samples below are zeroed
}

// SmoothingConfig holds mesh smoothing settings.
type SmoothingConfig struct {
	Filter     string  `yaml:"filter"` // "laplacian" or "hc"
	Iterations int     `yaml:"iterations"`
	Intensity  float32 `yaml:"intensity"`
	HCAlpha    float32 `yaml:"hc_alpha"`
	HCBeta     float32 `yaml:"hc_beta"`
}

// DecodeConfig holds image decoding settings.
type DecodeConfig struct {
	ConvertColor bool `yaml:"convert_color"`
}

// BatchConfig holds folder batch settings.
type BatchConfig struct {
	InputDir  string `yaml:"input_dir"`
	Pattern   string `yaml:"pattern"`
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"` // 0 uses one worker per CPU
	Manifest  bool   `yaml:"manifest"`
}

// TilingConfig holds tile splitting and placement settings.
type TilingConfig struct {
	Tiles    int     `yaml:"tiles"` // split into Tiles x Tiles
	TileSize float32 `yaml:"tile_size"`
	Overlap  float32 `yaml:"overlap"`
	Combine  bool    `yaml:"combine"` // merge batch output into one mesh
}

// ExportConfig holds output settings.
type ExportConfig struct {
	RasterFormat  string  `yaml:"raster_format"` // png, tif or webp
	WriteGrid     bool    `yaml:"write_grid"`    // also save the resampled heightmap
	Preview       bool    `yaml:"preview"`
	SeaLevel      float32 `yaml:"sea_level"`
	PreviewJitter float32 `yaml:"preview_jitter"`
	Seed          uint64  `yaml:"seed"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			HeightScale: 64,
		},
		Smoothing: SmoothingConfig{
			Filter:     "laplacian",
			Iterations: 0,
			Intensity:  0.5,
			HCAlpha:    0.5,
			HCBeta:     0.5,
		},
		Batch: BatchConfig{
			Pattern:  "tile_*_*.png",
			Manifest: true,
		},
		Tiling: TilingConfig{
			Tiles:    1,
			TileSize: 300,
			Overlap:  1,
		},
		Export: ExportConfig{
			RasterFormat: "png",
			SeaLevel:     0.1,
			Seed:         1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	m := c.Mesh
	check(!math.IsNaN(float64(m.HeightScale)) && !math.IsInf(float64(m.HeightScale), 0), "mesh.height_scale %v", m.HeightScale)
	check(m.ResampleRatio >= 0, "mesh.resample_ratio %v < 0", m.ResampleRatio)
	check(m.TargetWidth >= 0 && m.TargetHeight >= 0, "mesh target size %dx%d", m.TargetWidth, m.TargetHeight)
	check(m.Threshold >= 0 && m.Threshold <= 1, "mesh.threshold %v outside [0, 1]", m.Threshold)

	s := c.Smoothing
	_, err := terrain.ParseFilter(s.Filter)
	check(err == nil, "smoothing.filter %q", s.Filter)
	check(s.Iterations >= 0, "smoothing.iterations %d < 0", s.Iterations)
	check(s.Intensity >= 0 && s.Intensity <= 1, "smoothing.intensity %v outside [0, 1]", s.Intensity)
	check(s.HCAlpha >= 0 && s.HCAlpha <= 1, "smoothing.hc_alpha %v outside [0, 1]", s.HCAlpha)
	check(s.HCBeta >= 0 && s.HCBeta <= 1, "smoothing.hc_beta %v outside [0, 1]", s.HCBeta)

	check(c.Batch.Workers >= 0, "batch.workers %d < 0", c.Batch.Workers)

	t := c.Tiling
	check(t.Tiles >= 1, "tiling.tiles %d < 1", t.Tiles)
	check(t.TileSize > 0, "tiling.tile_size %v <= 0", t.TileSize)
	check(t.Overlap >= 0 && t.Overlap < t.TileSize, "tiling.overlap %v outside [0, tile_size)", t.Overlap)

	_, err = c.RasterExtension()
	check(err == nil, "export.raster_format %q", c.Export.RasterFormat)
	check(c.Export.SeaLevel >= 0 && c.Export.SeaLevel <= 1, "export.sea_level %v outside [0, 1]", c.Export.SeaLevel)
	check(c.Export.PreviewJitter >= 0, "export.preview_jitter %v < 0", c.Export.PreviewJitter)

	_, err = logger.ParseLevel(c.Logging.Level)
	check(err == nil, "logging.level %q", c.Logging.Level)

	return errs
}

// TerrainOptions converts the mesh and smoothing sections for terrain.Generate.
func (c *Config) TerrainOptions() (terrain.Options, error) {
	filter, err := terrain.ParseFilter(c.Smoothing.Filter)
	if err != nil {
		return terrain.Options{}, err
	}
	return terrain.Options{
		Threshold:    c.Mesh.Threshold,
		TargetWidth:  c.Mesh.TargetWidth,
		TargetHeight: c.Mesh.TargetHeight,
		Ratio:        c.Mesh.ResampleRatio,
		HeightScale:  c.Mesh.HeightScale,
		SkipZero:     c.Mesh.SkipZero,
		Smooth: terrain.SmoothParams{
			Filter:     filter,
			Iterations: c.Smoothing.Iterations,
			Intensity:  c.Smoothing.Intensity,
			HCAlpha:    c.Smoothing.HCAlpha,
			HCBeta:     c.Smoothing.HCBeta,
		},
	}, nil
}

// DecodeOptions converts the decode section.
func (c *Config) DecodeOptions() formats.DecodeOptions {
	return formats.DecodeOptions{ConvertColor: c.Decode.ConvertColor}
}

// RasterExtension returns the file extension for export.raster_format.
func (c *Config) RasterExtension() (string, error) {
	switch c.Export.RasterFormat {
	case "png":
		return ".png", nil
	case "tif", "tiff":
		return ".tif", nil
	case "webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %q", formats.ErrUnsupportedExtension, c.Export.RasterFormat)
	}
}

// LoggerFileConfig converts the logging section for logger.InitWithFileConfig.
func (c *Config) LoggerFileConfig() logger.FileConfig {
	if c.Logging.LogFile == "" {
		return logger.FileConfig{}
	}
	fc := logger.DefaultFileConfig(c.Logging.LogFile)
	fc.JSON = c.Logging.JSON
	return fc
}
