package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if got := cfg.Pipeline.Qualities; !reflect.DeepEqual(got, []string{"standard"}) {
		t.Errorf("default qualities = %v, want [standard]", got)
	}
	if cfg.Pipeline.WeldVertices {
		t.Error("welding enabled by default")
	}
	if cfg.Cache.Root == "" {
		t.Error("default cache root is empty")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("Load without a file diverged from defaults")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lodforge.yaml")
	content := `pipeline:
  qualities: [standard, minimal]
  weld_vertices: true
cache:
  root: /tmp/lodcache
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(&Flags{Config: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Pipeline.Qualities; !reflect.DeepEqual(got, []string{"standard", "minimal"}) {
		t.Errorf("qualities = %v", got)
	}
	if !cfg.Pipeline.WeldVertices {
		t.Error("weld_vertices not loaded")
	}
	if cfg.Cache.Root != "/tmp/lodcache" {
		t.Errorf("cache root = %q", cfg.Cache.Root)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Output.Folder != Default().Output.Folder {
		t.Errorf("output folder = %q, want default", cfg.Output.Folder)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(&Flags{Config: filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestFlagOverrides(t *testing.T) {
	flags := &Flags{
		Debug:     true,
		CacheRoot: "/tmp/override",
		Output:    "out",
		Overwrite: true,
		Qualities: []string{"minimal"},
		Weld:      true,
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Cache.Root != "/tmp/override" {
		t.Errorf("cache root = %q", cfg.Cache.Root)
	}
	if cfg.Output.Folder != "out" {
		t.Errorf("output folder = %q", cfg.Output.Folder)
	}
	if !cfg.Cache.Overwrite {
		t.Error("overwrite not applied")
	}
	if !reflect.DeepEqual(cfg.Pipeline.Qualities, []string{"minimal"}) {
		t.Errorf("qualities = %v", cfg.Pipeline.Qualities)
	}
	if !cfg.Pipeline.WeldVertices {
		t.Error("weld not applied")
	}
}

func TestFlagsRegisterAndParse(t *testing.T) {
	var flags Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Register(fs)

	args := []string{
		"--debug",
		"--cache-root", "/var/lod",
		"-o", "dist",
		"-q", "standard,minimal",
		"--weld",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !flags.Debug || flags.CacheRoot != "/var/lod" || flags.Output != "dist" || !flags.Weld {
		t.Errorf("parsed flags = %+v", flags)
	}
	if !reflect.DeepEqual(flags.Qualities, []string{"standard", "minimal"}) {
		t.Errorf("qualities = %v", flags.Qualities)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := Default()
	want.Pipeline.Qualities = []string{"original", "minimal"}
	want.Cache.Root = "/srv/cache"
	if err := want.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := Load(&Flags{Config: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}
