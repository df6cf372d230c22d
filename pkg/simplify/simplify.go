package simplify

import "github.com/avendale/lodforge/pkg/mesh"

// Fixed tuning constants. These encode empirically chosen trade-offs and
// are deliberately not configurable.
const (
	// vertexCacheSize is the simulated FIFO cache size used for ACMR.
	vertexCacheSize = 32
	// acmrReorderThreshold triggers a cache-locality reorder.
	acmrReorderThreshold = 1.5
	// overdrawReorderThreshold triggers an overdraw reorder.
	overdrawReorderThreshold = 1.5
	// acmrRegressionBudget caps how much the overdraw reorder may regress
	// cache locality.
	acmrRegressionBudget = 1.05
	// minFaceSkipMultiplier decides between clamping to the face floor and
	// skipping decimation outright.
	minFaceSkipMultiplier = 1.5
	// minIndexCount is the floor for the computed target index count.
	minIndexCount = 3
	// keepRatio marks near-original requests: no triangles are removed,
	// only the buffer layout is optimized.
	keepRatio = 0.95
)

// Simplify decimates a mesh part according to opts and optimizes the
// resulting buffer layout. The input part is never mutated; the returned
// part is either a freshly built one or the input itself when no work was
// warranted.
func Simplify(part *mesh.Part, opts Options) *mesh.Part {
	if part == nil || !part.HasValidIndices() {
		return part
	}

	src := part
	if opts.WeldVertices {
		src = Weld(part)
	}

	targetIndexCount := computeTargetIndexCount(len(src.Indices), opts.TargetRatio)

	// Minimum-face protection.
	originalFaceCount := len(src.Indices) / 3
	targetFaceCount := targetIndexCount / 3
	if targetFaceCount <= opts.MinFaceCount {
		if float64(originalFaceCount) > float64(opts.MinFaceCount)*minFaceSkipMultiplier {
			targetFaceCount = opts.MinFaceCount
			targetIndexCount = targetFaceCount * 3
		} else {
			// Already near the floor; further reduction is not worth
			// the quality loss.
			return part
		}
	}

	if targetIndexCount >= len(src.Indices) {
		if src != part {
			return finishLayout(src)
		}
		return part
	}

	// Near-original ratios keep every triangle; only the layout pass runs.
	if opts.TargetRatio >= keepRatio {
		return finishLayout(src)
	}

	var indices []uint32
	switch {
	case opts.Sloppy:
		indices = simplifySloppy(src, targetIndexCount, opts.ErrorThreshold)
	case opts.IgnoreAttributes || src.Normals == nil:
		indices = simplifyCollapse(src, targetIndexCount, opts, false)
	default:
		indices = simplifyCollapse(src, targetIndexCount, opts, true)
	}

	// An empty result means the algorithm failed; never hand back an
	// empty mesh.
	if len(indices) == 0 {
		return part
	}

	out := &mesh.Part{
		Positions: src.Positions,
		Indices:   indices,
		Normals:   src.Normals,
		TexCoords: src.TexCoords,
	}
	return finishLayout(out)
}

// computeTargetIndexCount rounds indexCount*ratio down to a multiple of 3,
// floored at 3.
func computeTargetIndexCount(indexCount int, ratio float64) int {
	raw := int(float64(indexCount) * ratio)
	target := raw - raw%3
	if target < minIndexCount {
		target = minIndexCount
	}
	return target
}

// finishLayout runs the three-stage buffer layout pass: conditional
// vertex-cache reorder, conditional overdraw reorder, unconditional
// vertex-fetch compaction. Always returns a new part.
func finishLayout(p *mesh.Part) *mesh.Part {
	indices := p.Indices

	if ACMR(indices, p.VertexCount(), vertexCacheSize) > acmrReorderThreshold {
		indices = optimizeVertexCache(indices, p.VertexCount())
	}

	if estimateOverdraw(indices, p.Positions) > overdrawReorderThreshold {
		reordered := optimizeOverdraw(indices, p.Positions)
		before := ACMR(indices, p.VertexCount(), vertexCacheSize)
		after := ACMR(reordered, p.VertexCount(), vertexCacheSize)
		if after <= before*acmrRegressionBudget {
			indices = reordered
		}
	}

	return compactVertexFetch(&mesh.Part{
		Positions: p.Positions,
		Indices:   indices,
		Normals:   p.Normals,
		TexCoords: p.TexCoords,
	})
}
