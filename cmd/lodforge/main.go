// lodforge is a CLI for generating multi-quality LOD variants of 3D assets.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/avendale/lodforge/internal/assets"
	"github.com/avendale/lodforge/internal/config"
	"github.com/avendale/lodforge/internal/logger"
	"github.com/avendale/lodforge/internal/pipeline"
	"github.com/avendale/lodforge/pkg/simplify"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "batch":
		cmdBatch(args)
	case "info":
		cmdInfo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lodforge - multi-quality LOD generation for 3D assets

Usage:
  lodforge <command> [options]

Commands:
  generate <asset.glb>        Derive quality variants of one asset
  batch <path>...             Process every asset under the given paths
  info <asset.glb>            Show asset statistics

Examples:
  lodforge generate statue.glb -q standard,minimal -o ./lod
  lodforge generate statue.glb --ratio 0.42 --sloppy
  lodforge batch ./models --overwrite
  lodforge info statue.glb`)
}

// bootstrap loads the configuration and initializes logging.
func bootstrap(flags *config.Flags) *config.Config {
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// customFlags holds the per-run override knobs for a custom quality.
type customFlags struct {
	ratio          float64
	errorThreshold float64
	minFaces       int
	sloppy         bool
	prune          bool
}

func (c *customFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&c.ratio, "ratio", -1, "custom target triangle ratio in [0,1]")
	fs.Float64Var(&c.errorThreshold, "error-threshold", -1, "custom error threshold as a fraction of the bounding box")
	fs.IntVar(&c.minFaces, "min-faces", -1, "custom minimum face count")
	fs.BoolVar(&c.sloppy, "sloppy", false, "use fast grid clustering instead of edge collapse")
	fs.BoolVar(&c.prune, "prune", false, "drop small disconnected fragments")
}

// quality builds a custom level from the flags, or nil when --ratio is
// unset.
func (c *customFlags) quality() (*simplify.Quality, error) {
	if c.ratio < 0 {
		return nil, nil
	}
	params := simplify.CustomParams{TargetRatio: &c.ratio}
	if c.errorThreshold >= 0 {
		params.ErrorThreshold = &c.errorThreshold
	}
	if c.minFaces >= 0 {
		params.MinFaceCount = &c.minFaces
	}
	if c.sloppy {
		params.Sloppy = &c.sloppy
	}
	if c.prune {
		params.Prune = &c.prune
	}
	q, err := simplify.Custom(params)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// resolveQualities maps configured names plus an optional custom level to
// quality values, deduplicated in order.
func resolveQualities(names []string, custom *simplify.Quality) ([]simplify.Quality, error) {
	var out []simplify.Quality
	seen := make(map[string]bool)

	add := func(q simplify.Quality) {
		if !seen[q.Suffix()] {
			seen[q.Suffix()] = true
			out = append(out, q)
		}
	}

	if custom != nil {
		add(*custom)
	} else {
		for _, name := range names {
			q, err := simplify.ParseQuality(name)
			if err != nil {
				return nil, err
			}
			add(q)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no quality levels configured")
	}
	return out, nil
}

func cmdGenerate(args []string) {
	fs := pflag.NewFlagSet("generate", pflag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	var custom customFlags
	custom.register(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodforge generate <asset.glb> [options]")
		os.Exit(1)
	}

	cfg := bootstrap(&flags)
	defer logger.Sync()

	runBatch(cfg, &custom, fs.Args())
}

func cmdBatch(args []string) {
	fs := pflag.NewFlagSet("batch", pflag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	var custom customFlags
	custom.register(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodforge batch <path>... [options]")
		os.Exit(1)
	}

	cfg := bootstrap(&flags)
	defer logger.Sync()

	sources, err := collectSources(fs.Args())
	if err != nil {
		logger.Log.Error("collecting sources failed", zap.Error(err))
		os.Exit(1)
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "No .glb/.gltf assets found")
		os.Exit(1)
	}

	runBatch(cfg, &custom, sources)
}

// runBatch drives the orchestrator over the given sources and reports a
// per-unit progress line on stdout.
func runBatch(cfg *config.Config, custom *customFlags, sources []string) {
	customQuality, err := custom.quality()
	if err != nil {
		logger.Log.Error("invalid custom quality", zap.Error(err))
		os.Exit(1)
	}
	qualities, err := resolveQualities(cfg.Pipeline.Qualities, customQuality)
	if err != nil {
		logger.Log.Error("invalid quality configuration", zap.Error(err))
		os.Exit(1)
	}

	o := &pipeline.Orchestrator{
		Cache:        pipeline.NewCache(cfg.Cache.Root, logger.Named("cache")),
		Processor:    pipeline.NewProcessor(logger.Named("processor")),
		OutputDir:    cfg.Output.Folder,
		Overwrite:    cfg.Cache.Overwrite,
		WeldVertices: cfg.Pipeline.WeldVertices,
		Log:          logger.Named("batch"),
		Progress: func(done, total int, source string, q simplify.Quality) {
			fmt.Printf("[%d/%d] %s (%s)\n", done, total, assets.BaseName(source), q)
		},
	}

	if err := os.MkdirAll(cfg.Cache.Root, 0755); err != nil {
		logger.Log.Error("creating cache root failed", zap.Error(err))
		os.Exit(1)
	}

	res := o.Run(sources, qualities)
	hits, misses := o.Cache.Stats()
	fmt.Printf("Done: %d ok, %d failed of %d assets (cache: %d hits, %d misses)\n",
		res.Success, res.Failure, res.Total, hits, misses)

	if res.Failure > 0 {
		os.Exit(1)
	}
}

// collectSources expands directories into their .glb/.gltf files.
func collectSources(paths []string) ([]string, error) {
	var sources []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			sources = append(sources, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".glb", ".gltf":
				sources = append(sources, filepath.Join(p, e.Name()))
			}
		}
	}
	return sources, nil
}

func cmdInfo(args []string) {
	fs := pflag.NewFlagSet("info", pflag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodforge info <asset.glb>")
		os.Exit(1)
	}

	a, err := assets.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	nodes := 0
	a.Walk(func(*assets.Node) { nodes++ })

	fmt.Printf("Asset:     %s\n", a.Name)
	fmt.Printf("Nodes:     %d\n", nodes)
	fmt.Printf("Parts:     %d\n", len(a.Parts()))
	fmt.Printf("Triangles: %d\n", a.TriangleCount())
	fmt.Printf("Vertices:  %d\n", a.VertexCount())
	fmt.Printf("Materials: %d\n", len(a.Materials))
	fmt.Printf("Textures:  %d\n", len(a.Textures))

	if len(a.Textures) > 0 {
		fmt.Println()
		fmt.Println("Textures:")
		byMIME := make(map[string]int)
		for _, tex := range a.Textures {
			mime := tex.MIME
			if mime == "" {
				mime = assets.SniffMIME(tex.Data)
			}
			byMIME[mime]++
		}
		var mimes []string
		for m := range byMIME {
			mimes = append(mimes, m)
		}
		sort.Strings(mimes)
		for _, m := range mimes {
			fmt.Printf("  %-12s %d\n", m, byMIME[m])
		}
	}
}
