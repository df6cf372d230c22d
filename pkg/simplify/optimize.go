package simplify

import (
	"math"
	"sort"

	"github.com/avendale/lodforge/pkg/geom"
	"github.com/avendale/lodforge/pkg/mesh"
)

// overdrawClusterSize is the triangle run length used when estimating and
// reordering for overdraw.
const overdrawClusterSize = 16

// ACMR returns the average cache miss ratio of an index buffer under a
// simulated FIFO vertex cache: transformed vertices per triangle, lower is
// better. Returns 0 for an empty buffer.
func ACMR(indices []uint32, vertexCount, cacheSize int) float64 {
	triangles := len(indices) / 3
	if triangles == 0 || vertexCount == 0 {
		return 0
	}

	// FIFO membership via insertion timestamps: a vertex is cached while
	// fewer than cacheSize distinct insertions happened since its own.
	time := make([]int, vertexCount)
	for i := range time {
		time[i] = -cacheSize - 1
	}

	stamp := 0
	misses := 0
	for _, idx := range indices {
		if int(idx) >= vertexCount {
			continue
		}
		if stamp-time[idx] > cacheSize {
			time[idx] = stamp
			stamp++
			misses++
		}
	}
	return float64(misses) / float64(triangles)
}

// optimizeVertexCache reorders triangles for vertex cache locality using a
// tip-and-fan greedy walk with a dead-end stack (Tipsify). The triangle
// set is preserved exactly; only the order changes.
func optimizeVertexCache(indices []uint32, vertexCount int) []uint32 {
	triangles := len(indices) / 3
	if triangles == 0 || vertexCount == 0 {
		return indices
	}

	adjacency := make([][]int32, vertexCount)
	live := make([]int, vertexCount)
	for t := 0; t < triangles; t++ {
		for e := 0; e < 3; e++ {
			v := indices[t*3+e]
			if int(v) >= vertexCount {
				return indices
			}
			adjacency[v] = append(adjacency[v], int32(t))
			live[v]++
		}
	}

	const cacheSize = vertexCacheSize
	time := make([]int, vertexCount)
	for i := range time {
		time[i] = -cacheSize - 1
	}

	emitted := make([]bool, triangles)
	out := make([]uint32, 0, len(indices))
	deadEnd := make([]uint32, 0, len(indices))

	stamp := cacheSize + 1
	cursor := 0
	fan := int32(0)

	for fan >= 0 {
		var candidates []uint32
		for _, t := range adjacency[fan] {
			if emitted[t] {
				continue
			}
			emitted[t] = true
			for e := 0; e < 3; e++ {
				v := indices[int(t)*3+e]
				out = append(out, v)
				deadEnd = append(deadEnd, v)
				candidates = append(candidates, v)
				live[v]--
				if stamp-time[v] > cacheSize {
					time[v] = stamp
					stamp++
				}
			}
		}

		// Next fanning vertex: the candidate that stays cached the
		// longest while still having live triangles.
		fan = -1
		bestPriority := -1
		for _, v := range candidates {
			if live[v] <= 0 {
				continue
			}
			priority := 0
			if stamp-time[v]+2*live[v] <= cacheSize {
				priority = stamp - time[v]
			}
			if priority > bestPriority {
				bestPriority = priority
				fan = int32(v)
			}
		}

		if fan < 0 {
			// Dead-end: backtrack through recently touched vertices,
			// then scan forward for any vertex with live triangles.
			for len(deadEnd) > 0 {
				v := deadEnd[len(deadEnd)-1]
				deadEnd = deadEnd[:len(deadEnd)-1]
				if live[v] > 0 {
					fan = int32(v)
					break
				}
			}
			if fan < 0 {
				for cursor < vertexCount {
					if live[cursor] > 0 {
						fan = int32(cursor)
						break
					}
					cursor++
				}
			}
		}
	}

	if len(out) != len(indices) {
		// Defensive: keep the original order if the walk lost triangles.
		return indices
	}
	return out
}

// estimateOverdraw estimates how far the triangle draw order is from
// front-to-back along the dominant bounding-box axis. The result is in
// [1, 2]: 1 means already sorted, 2 means fully reversed.
func estimateOverdraw(indices []uint32, positions [][3]float32) float64 {
	depths := clusterDepths(indices, positions)
	k := len(depths)
	if k < 2 {
		return 1
	}

	inversions := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if depths[i] > depths[j] {
				inversions++
			}
		}
	}
	return 1 + 2*float64(inversions)/float64(k*(k-1))
}

// optimizeOverdraw reorders fixed-size triangle clusters front-to-back
// along the dominant axis, keeping the intra-cluster order (and thus most
// of the cache locality) intact.
func optimizeOverdraw(indices []uint32, positions [][3]float32) []uint32 {
	depths := clusterDepths(indices, positions)
	if len(depths) < 2 {
		return indices
	}

	order := make([]int, len(depths))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depths[order[a]] < depths[order[b]]
	})

	out := make([]uint32, 0, len(indices))
	for _, c := range order {
		start := c * overdrawClusterSize * 3
		end := start + overdrawClusterSize*3
		if end > len(indices) {
			end = len(indices)
		}
		out = append(out, indices[start:end]...)
	}
	return out
}

// clusterDepths returns the mean triangle centroid depth per cluster,
// measured along the dominant axis of the mesh bounds.
func clusterDepths(indices []uint32, positions [][3]float32) []float64 {
	triangles := len(indices) / 3
	if triangles == 0 || len(positions) == 0 {
		return nil
	}

	min := geom.V3(positions[0])
	max := min
	for _, p := range positions[1:] {
		v := geom.V3(p)
		min = min.Min(v)
		max = max.Max(v)
	}
	size := max.Sub(min)
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	if size.Z > size.X && size.Z > size.Y {
		axis = 2
	}

	depth := func(t int) float64 {
		var sum float64
		for e := 0; e < 3; e++ {
			idx := indices[t*3+e]
			if int(idx) >= len(positions) {
				continue
			}
			sum += float64(positions[idx][axis])
		}
		return sum / 3
	}

	clusters := (triangles + overdrawClusterSize - 1) / overdrawClusterSize
	depths := make([]float64, clusters)
	for c := 0; c < clusters; c++ {
		start := c * overdrawClusterSize
		end := start + overdrawClusterSize
		if end > triangles {
			end = triangles
		}
		var sum float64
		for t := start; t < end; t++ {
			sum += depth(t)
		}
		depths[c] = sum / math.Max(float64(end-start), 1)
	}
	return depths
}

// compactVertexFetch renumbers vertices in first-fetch order of the index
// buffer, drops unreferenced vertices, and applies the same renumbering to
// every attribute stream. Always returns a new part.
func compactVertexFetch(p *mesh.Part) *mesh.Part {
	remap := make([]int64, len(p.Positions))
	for i := range remap {
		remap[i] = -1
	}

	out := &mesh.Part{Indices: make([]uint32, len(p.Indices))}
	next := uint32(0)
	for i, idx := range p.Indices {
		if int(idx) >= len(p.Positions) {
			out.Indices[i] = 0
			continue
		}
		if remap[idx] < 0 {
			remap[idx] = int64(next)
			next++
		}
		out.Indices[i] = uint32(remap[idx])
	}

	out.Positions = make([][3]float32, next)
	if p.Normals != nil {
		out.Normals = make([][3]float32, next)
	}
	if p.TexCoords != nil {
		out.TexCoords = make([][2]float32, next)
	}
	for old, mapped := range remap {
		if mapped < 0 {
			continue
		}
		out.Positions[mapped] = p.Positions[old]
		if out.Normals != nil && old < len(p.Normals) {
			out.Normals[mapped] = p.Normals[old]
		}
		if out.TexCoords != nil && old < len(p.TexCoords) {
			out.TexCoords[mapped] = p.TexCoords[old]
		}
	}
	return out
}
