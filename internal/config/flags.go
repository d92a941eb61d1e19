package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagScale      = flag.Float64("scale", 0, "Height scale (overrides mesh.height_scale)")
	flagSkipZero   = flag.Bool("skip-zero", false, "Drop zero-height cells from the mesh (-skip-zero=false to keep them)")
	flagFilter     = flag.String("filter", "", "Smoothing filter: laplacian or hc")
	flagIterations = flag.Int("iterations", 0, "Smoothing iterations")
	flagWorkers    = flag.Int("workers", 0, "Batch worker count (0 = one per CPU)")
	flagRatio      = flag.Float64("ratio", 0, "Resample ratio (0 = keep size)")
)

// explicitFlags returns the names of the flags given on the command line.
var explicitFlags = func() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies the flags named in set to the config. Only flags given
// on the command line override the file, so zero values such as -scale 0 or
// -skip-zero=false are honoured.
func applyFlags(cfg *Config, set map[string]bool) {
	if set["debug"] && *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if set["scale"] {
		cfg.Mesh.HeightScale = float32(*flagScale)
	}
	if set["skip-zero"] {
		cfg.Mesh.SkipZero = *flagSkipZero
	}
	if set["filter"] {
		cfg.Smoothing.Filter = *flagFilter
	}
	if set["iterations"] {
		cfg.Smoothing.Iterations = *flagIterations
	}
	if set["workers"] {
		cfg.Batch.Workers = *flagWorkers
	}
	if set["ratio"] {
		cfg.Mesh.ResampleRatio = *flagRatio
	}
}
