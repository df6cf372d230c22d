package simplify

import (
	"math"

	"github.com/avendale/lodforge/pkg/geom"
	"github.com/avendale/lodforge/pkg/mesh"
)

// maxSloppyGrid bounds the clustering grid resolution.
const maxSloppyGrid = 1024

// simplifySloppy decimates by clustering vertices on a uniform spatial
// grid and collapsing each cell to its first-seen vertex. Topology quality
// and attributes are ignored; only errorThreshold and the target count
// steer the result. Returns nil on failure.
func simplifySloppy(src *mesh.Part, targetIndexCount int, errorThreshold float64) []uint32 {
	vertexCount := len(src.Positions)
	for _, idx := range src.Indices {
		if int(idx) >= vertexCount {
			return nil
		}
	}

	min, max := src.Bounds()
	size := max.Sub(min)
	extent := float64(math.Max(float64(size.X), math.Max(float64(size.Y), float64(size.Z))))
	if extent <= 0 {
		return nil
	}

	// The cell size may not exceed errorThreshold * extent, which bounds
	// how coarse the clustering is allowed to get.
	minGrid := 1
	if errorThreshold > 0 {
		minGrid = int(math.Ceil(1 / errorThreshold))
		if minGrid < 1 {
			minGrid = 1
		}
		if minGrid > maxSloppyGrid {
			minGrid = maxSloppyGrid
		}
	}

	targetTris := targetIndexCount / 3

	// Binary search the coarsest grid that still meets the target: finer
	// grids retain more triangles.
	lo, hi := minGrid, maxSloppyGrid
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if countGridTriangles(src, min, extent, mid) <= targetTris {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best == 0 {
		best = minGrid
	}

	return clusterIndices(src, min, extent, best)
}

// cellOf quantizes a position into grid coordinates.
func cellOf(p [3]float32, min geom.Vec3, extent float64, grid int) uint64 {
	quant := func(v, lo float32) uint64 {
		c := int(float64(v-lo) / extent * float64(grid))
		if c < 0 {
			c = 0
		}
		if c >= grid {
			c = grid - 1
		}
		return uint64(c)
	}
	return quant(p[0], min.X) | quant(p[1], min.Y)<<20 | quant(p[2], min.Z)<<40
}

// countGridTriangles counts the non-degenerate triangles that survive
// clustering at the given grid resolution.
func countGridTriangles(src *mesh.Part, min geom.Vec3, extent float64, grid int) int {
	cells := make(map[uint64]uint32, len(src.Positions))
	cellFor := func(idx uint32) uint32 {
		key := cellOf(src.Positions[idx], min, extent, grid)
		if rep, ok := cells[key]; ok {
			return rep
		}
		cells[key] = idx
		return idx
	}

	count := 0
	for i := 0; i+2 < len(src.Indices); i += 3 {
		a := cellFor(src.Indices[i])
		b := cellFor(src.Indices[i+1])
		c := cellFor(src.Indices[i+2])
		if a != b && b != c && a != c {
			count++
		}
	}
	return count
}

// clusterIndices rebuilds the index buffer with every vertex replaced by
// its cell representative, dropping degenerate triangles.
func clusterIndices(src *mesh.Part, min geom.Vec3, extent float64, grid int) []uint32 {
	cells := make(map[uint64]uint32, len(src.Positions))
	cellFor := func(idx uint32) uint32 {
		key := cellOf(src.Positions[idx], min, extent, grid)
		if rep, ok := cells[key]; ok {
			return rep
		}
		cells[key] = idx
		return idx
	}

	out := make([]uint32, 0, len(src.Indices))
	for i := 0; i+2 < len(src.Indices); i += 3 {
		a := cellFor(src.Indices[i])
		b := cellFor(src.Indices[i+1])
		c := cellFor(src.Indices[i+2])
		if a != b && b != c && a != c {
			out = append(out, a, b, c)
		}
	}
	return out
}
