// Package config handles pipeline configuration loading and management.
package config

// Config holds all pipeline settings.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Cache    CacheConfig    `yaml:"cache"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig holds processing settings.
type PipelineConfig struct {
	Qualities    []string `yaml:"qualities"`     // Quality levels to derive per asset
	WeldVertices bool     `yaml:"weld_vertices"` // Merge duplicate vertices before simplification
}

// CacheConfig holds artifact cache settings.
type CacheConfig struct {
	Root      string `yaml:"root"`
	Overwrite bool   `yaml:"overwrite"`
}

// OutputConfig holds output tree settings.
type OutputConfig struct {
	Folder string `yaml:"folder"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Qualities:    []string{"standard"},
			WeldVertices: false,
		},
		Cache: CacheConfig{
			Root:      ".lodforge-cache",
			Overwrite: false,
		},
		Output: OutputConfig{
			Folder: "lod",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
