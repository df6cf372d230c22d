package pipeline

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/avendale/lodforge/internal/assets"
	"github.com/avendale/lodforge/pkg/simplify"
)

// ProgressFunc is called once per (asset, quality) unit as the batch
// advances. done counts completed units out of total.
type ProgressFunc func(done, total int, source string, q simplify.Quality)

// Result summarizes a batch run. Counts are per source file: a file is a
// failure when it could not be loaded at all.
type Result struct {
	Success int
	Failure int
	Total   int
}

// Orchestrator drives batch runs: load each source once, derive every
// requested quality, populate the cache and write the output tree.
type Orchestrator struct {
	Cache     *Cache
	Processor *Processor

	// OutputDir receives <suffix>/<base>.glb per unit. Empty means
	// cache-only runs.
	OutputDir string

	// Overwrite drops cached artifacts before processing instead of
	// reusing them.
	Overwrite bool

	// WeldVertices forces the vertex weld pre-stage on every quality.
	WeldVertices bool

	Progress ProgressFunc
	Log      *zap.Logger
}

// Run processes every source at every quality. Sources are handled in
// base-name order regardless of input order.
func (o *Orchestrator) Run(sources []string, qualities []simplify.Quality) Result {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}

	opts := make([]simplify.Options, len(qualities))
	for i, q := range qualities {
		opts[i] = q.Resolve()
		if o.WeldVertices {
			opts[i].WeldVertices = true
		}
	}

	ordered := make([]string, len(sources))
	copy(ordered, sources)
	sort.Slice(ordered, func(i, j int) bool {
		return assets.BaseName(ordered[i]) < assets.BaseName(ordered[j])
	})

	res := Result{Total: len(ordered)}
	total := len(ordered) * len(qualities)
	done := 0

	var pending []*PersistTask

	for _, src := range ordered {
		if o.Overwrite {
			if err := o.Cache.Invalidate(src, qualities); err != nil {
				log.Warn("cache invalidation failed", zap.String("source", src), zap.Error(err))
			}
		}

		asset, err := assets.Load(src)
		if err != nil {
			log.Error("loading source failed", zap.String("source", src), zap.Error(err))
			res.Failure++
			for _, q := range qualities {
				done++
				o.report(done, total, src, q)
			}
			continue
		}

		for i, q := range qualities {
			o.runUnit(asset, src, q, opts[i], &pending, log)
			done++
			o.report(done, total, src, q)
		}
		res.Success++
	}

	for _, t := range pending {
		if err := t.Wait(); err != nil {
			log.Warn("persisting cache artifact failed", zap.String("path", t.Path()), zap.Error(err))
		}
	}

	log.Info("batch finished",
		zap.Int("success", res.Success),
		zap.Int("failure", res.Failure),
		zap.Int("total", res.Total))

	return res
}

// runUnit derives one quality of one asset, reusing the cache when the
// artifact is already present.
func (o *Orchestrator) runUnit(src *assets.Asset, path string, q simplify.Quality, opts simplify.Options, pending *[]*PersistTask, log *zap.Logger) {
	variant, hit := o.Cache.Lookup(path, q)
	if !hit {
		var rep Report
		variant, rep = o.Processor.Process(src, opts)
		*pending = append(*pending, o.Cache.Persist(variant, path, q))
		log.Debug("derived quality variant",
			zap.String("source", path),
			zap.Stringer("quality", q),
			zap.Int("parts", rep.Parts),
			zap.Int("simplified", rep.Simplified))
	}

	if o.OutputDir == "" {
		return
	}
	out := filepath.Join(o.OutputDir, q.Suffix(), assets.BaseName(path)+".glb")
	if err := assets.Write(variant, out); err != nil {
		log.Warn("writing output failed", zap.String("path", out), zap.Error(err))
	}
}

func (o *Orchestrator) report(done, total int, source string, q simplify.Quality) {
	if o.Progress != nil {
		o.Progress(done, total, source, q)
	}
}
