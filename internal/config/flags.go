package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides shared by the pipeline commands.
type Flags struct {
	Config    string
	Debug     bool
	CacheRoot string
	Output    string
	Overwrite bool
	Qualities []string
	Weld      bool
}

// Register adds the override flags to a flag set. Call before parsing.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Config, "config", "c", "", "path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	fs.StringVar(&f.CacheRoot, "cache-root", "", "artifact cache directory")
	fs.StringVarP(&f.Output, "output", "o", "", "output directory")
	fs.BoolVar(&f.Overwrite, "overwrite", false, "recompute artifacts already in cache")
	fs.StringSliceVarP(&f.Qualities, "quality", "q", nil, "quality levels to derive (original, standard, minimal)")
	fs.BoolVar(&f.Weld, "weld", false, "weld duplicate vertices before simplification")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.CacheRoot != "" {
		cfg.Cache.Root = f.CacheRoot
	}
	if f.Output != "" {
		cfg.Output.Folder = f.Output
	}
	if f.Overwrite {
		cfg.Cache.Overwrite = true
	}
	if len(f.Qualities) > 0 {
		cfg.Pipeline.Qualities = f.Qualities
	}
	if f.Weld {
		cfg.Pipeline.WeldVertices = true
	}
}
