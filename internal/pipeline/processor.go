// Package pipeline orchestrates asset processing: per-part geometry
// simplification, texture resampling, artifact caching and batch runs.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/avendale/lodforge/internal/assets"
	"github.com/avendale/lodforge/internal/texture"
	"github.com/avendale/lodforge/pkg/simplify"
)

// passThroughRatio is the ratio at or above which an asset is copied
// unchanged instead of being run through the geometry and texture passes.
const passThroughRatio = 0.95

// Report summarizes a single asset run.
type Report struct {
	Parts             int // mesh parts seen
	Simplified        int // parts whose geometry was reduced or reordered
	PartsSkipped      int // parts with missing or invalid index data
	TexturesResampled int
	TextureFailures   int
}

// Processor derives one quality variant of an asset. The source asset is
// never mutated.
type Processor struct {
	log *zap.Logger
}

// NewProcessor creates a processor logging through log.
func NewProcessor(log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{log: log}
}

// Process returns a new asset at the requested quality. Per-part and
// per-texture failures are recoverable: the original data is kept and the
// failure counted in the report.
func (p *Processor) Process(src *assets.Asset, opts simplify.Options) (*assets.Asset, Report) {
	var rep Report

	out := src.Clone()
	if opts.TargetRatio >= passThroughRatio {
		rep.Parts = len(out.Parts())
		return out, rep
	}

	for _, part := range out.Parts() {
		rep.Parts++
		if part.Geometry == nil || !part.Geometry.HasValidIndices() {
			rep.PartsSkipped++
			p.log.Warn("skipping part with invalid geometry",
				zap.String("asset", src.Name),
				zap.String("part", part.Name))
			continue
		}
		before := part.Geometry
		part.Geometry = simplify.Simplify(before, opts)
		if part.Geometry != before {
			rep.Simplified++
		}
	}

	p.resampleTextures(out, opts.TargetRatio, &rep)

	p.log.Debug("asset processed",
		zap.String("asset", src.Name),
		zap.Float64("ratio", opts.TargetRatio),
		zap.Int("parts", rep.Parts),
		zap.Int("simplified", rep.Simplified),
		zap.Int("textures", rep.TexturesResampled))

	return out, rep
}

// resampleTextures walks materials channel by channel and replaces each
// referenced texture with a downsampled copy. A texture shared by several
// channels is resampled once, with the first channel deciding the bias.
func (p *Processor) resampleTextures(a *assets.Asset, ratio float64, rep *Report) {
	if texture.SkipPass(ratio) {
		return
	}

	var r texture.Resampler
	seen := make(map[int]bool)

	for _, mat := range a.Materials {
		for _, ch := range assets.OrderedChannels {
			idx, ok := mat.Textures[ch]
			if !ok || idx < 0 || idx >= len(a.Textures) || seen[idx] {
				continue
			}
			seen[idx] = true

			if out := r.Resample(a.Textures[idx], ch, ratio); out != nil {
				a.Textures[idx] = out
				rep.TexturesResampled++
			}
		}
	}

	rep.TextureFailures = r.Failures
	if r.Failures > 0 {
		p.log.Warn("texture resampling had failures",
			zap.String("asset", a.Name),
			zap.Int("failures", r.Failures))
	}
}
