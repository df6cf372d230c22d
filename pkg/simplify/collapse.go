package simplify

import (
	"container/heap"

	"github.com/avendale/lodforge/pkg/geom"
	"github.com/avendale/lodforge/pkg/mesh"
)

// quadric is a symmetric 4x4 plane-distance error matrix stored as its ten
// unique coefficients.
type quadric struct {
	a00, a01, a02 float64
	a11, a12, a22 float64
	b0, b1, b2, c float64
	weight        float64
}

// addPlane accumulates the squared-distance error term for plane
// (nx,ny,nz,d) with weight w.
func (q *quadric) addPlane(nx, ny, nz, d, w float64) {
	q.a00 += w * nx * nx
	q.a01 += w * nx * ny
	q.a02 += w * nx * nz
	q.a11 += w * ny * ny
	q.a12 += w * ny * nz
	q.a22 += w * nz * nz
	q.b0 += w * nx * d
	q.b1 += w * ny * d
	q.b2 += w * nz * d
	q.c += w * d * d
	q.weight += w
}

// add accumulates another quadric.
func (q *quadric) add(o *quadric) {
	q.a00 += o.a00
	q.a01 += o.a01
	q.a02 += o.a02
	q.a11 += o.a11
	q.a12 += o.a12
	q.a22 += o.a22
	q.b0 += o.b0
	q.b1 += o.b1
	q.b2 += o.b2
	q.c += o.c
	q.weight += o.weight
}

// eval returns the mean squared plane distance at point (x,y,z).
func (q *quadric) eval(x, y, z float64) float64 {
	r := q.a00*x*x + 2*q.a01*x*y + 2*q.a02*x*z +
		q.a11*y*y + 2*q.a12*y*z +
		q.a22*z*z +
		2*(q.b0*x+q.b1*y+q.b2*z) +
		q.c
	if q.weight <= 0 {
		return 0
	}
	if r < 0 {
		// Numerical noise around zero error.
		return 0
	}
	return r / q.weight
}

// collapseItem is one candidate half-edge collapse from -> to.
type collapseItem struct {
	cost     float64
	from, to uint32
	genFrom  uint32
	genTo    uint32
}

type collapseHeap []collapseItem

func (h collapseHeap) Len() int            { return len(h) }
func (h collapseHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h collapseHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *collapseHeap) Push(x interface{}) { *h = append(*h, x.(collapseItem)) }
func (h *collapseHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// simplifyCollapse runs greedy quadric edge-collapse decimation down to
// targetIndexCount. When useAttributes is set, normal deviation across
// each candidate edge is penalized in proportion to opts.AttributeWeight.
// Returns nil when decimation cannot produce a usable index buffer.
func simplifyCollapse(src *mesh.Part, targetIndexCount int, opts Options, useAttributes bool) []uint32 {
	vertexCount := len(src.Positions)
	for _, idx := range src.Indices {
		if int(idx) >= vertexCount {
			return nil
		}
	}

	indices := src.Indices
	diag := float64(src.BoundsDiagonal())
	if opts.Prune {
		indices = pruneComponents(src.Positions, indices, opts.ErrorThreshold*diag)
	}

	tris := make([][3]uint32, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		tris = append(tris, [3]uint32{indices[i], indices[i+1], indices[i+2]})
	}

	alive := make([]bool, len(tris))
	liveTris := 0
	for i, t := range tris {
		if t[0] != t[1] && t[1] != t[2] && t[0] != t[2] {
			alive[i] = true
			liveTris++
		}
	}
	if liveTris == 0 {
		return nil
	}

	// Per-vertex incident triangle lists.
	adjacency := make([][]int32, vertexCount)
	for i, t := range tris {
		if !alive[i] {
			continue
		}
		for _, v := range t {
			adjacency[v] = append(adjacency[v], int32(i))
		}
	}

	// Per-vertex quadrics from area-weighted triangle planes.
	quadrics := make([]quadric, vertexCount)
	for i, t := range tris {
		if !alive[i] {
			continue
		}
		p0 := geom.V3(src.Positions[t[0]])
		p1 := geom.V3(src.Positions[t[1]])
		p2 := geom.V3(src.Positions[t[2]])
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		area := float64(n.Length()) * 0.5
		if area <= 0 {
			continue
		}
		un := n.Normalize()
		d := -float64(un.X)*float64(p0.X) - float64(un.Y)*float64(p0.Y) - float64(un.Z)*float64(p0.Z)
		for _, v := range t {
			quadrics[v].addPlane(float64(un.X), float64(un.Y), float64(un.Z), d, area)
		}
	}

	border := findBorderVertices(tris, alive, vertexCount)

	thresholdSq := opts.ErrorThreshold * diag * opts.ErrorThreshold * diag

	gen := make([]uint32, vertexCount)

	edgeLenSq := func(a, b uint32) float64 {
		d := geom.V3(src.Positions[a]).Sub(geom.V3(src.Positions[b]))
		return float64(d.Dot(d))
	}

	cost := func(from, to uint32) float64 {
		p := src.Positions[to]
		c := quadrics[from].eval(float64(p[0]), float64(p[1]), float64(p[2]))
		if useAttributes && src.Normals != nil {
			na := geom.V3(src.Normals[from])
			nb := geom.V3(src.Normals[to])
			deviation := float64(1-na.Dot(nb)) * 0.5
			c += opts.AttributeWeight * deviation * edgeLenSq(from, to)
		}
		return c
	}

	h := &collapseHeap{}
	pushEdge := func(from, to uint32) {
		if from == to {
			return
		}
		if opts.LockBorder && border[from] {
			return
		}
		heap.Push(h, collapseItem{
			cost:    cost(from, to),
			from:    from,
			to:      to,
			genFrom: gen[from],
			genTo:   gen[to],
		})
	}

	seen := make(map[uint64]struct{})
	for i, t := range tris {
		if !alive[i] {
			continue
		}
		for e := 0; e < 3; e++ {
			a, b := t[e], t[(e+1)%3]
			key := edgeKey(a, b)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			pushEdge(a, b)
			pushEdge(b, a)
		}
	}

	// Greedy collapse loop: cheapest valid edge first, until the target is
	// reached or every remaining collapse exceeds the error threshold.
	for liveTris*3 > targetIndexCount && h.Len() > 0 {
		item := heap.Pop(h).(collapseItem)
		from, to := item.from, item.to
		if item.genFrom != gen[from] || item.genTo != gen[to] {
			continue // stale candidate
		}
		if item.cost > thresholdSq {
			break
		}
		if opts.LockBorder && border[from] {
			continue
		}
		if !stillAdjacent(tris, alive, adjacency[from], from, to) {
			continue
		}
		if flipsTriangle(src.Positions, tris, alive, adjacency[from], from, to) {
			continue
		}

		// Rewrite triangles incident to from; drop the ones that collapse
		// to a degenerate.
		for _, ti := range adjacency[from] {
			if !alive[ti] {
				continue
			}
			t := &tris[ti]
			for e := 0; e < 3; e++ {
				if t[e] == from {
					t[e] = to
				}
			}
			if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
				alive[ti] = false
				liveTris--
			} else {
				adjacency[to] = append(adjacency[to], ti)
			}
		}
		adjacency[from] = nil

		q := quadrics[from]
		quadrics[to].add(&q)
		if border[from] {
			border[to] = true
		}
		gen[from]++
		gen[to]++

		// Refresh candidates around the surviving vertex.
		pushed := make(map[uint32]struct{})
		for _, ti := range adjacency[to] {
			if !alive[ti] {
				continue
			}
			for _, v := range tris[ti] {
				if v == to {
					continue
				}
				if _, ok := pushed[v]; ok {
					continue
				}
				pushed[v] = struct{}{}
				pushEdge(to, v)
				pushEdge(v, to)
			}
		}
	}

	out := make([]uint32, 0, liveTris*3)
	for i, t := range tris {
		if alive[i] {
			out = append(out, t[0], t[1], t[2])
		}
	}
	return out
}

// edgeKey packs an undirected edge into a map key.
func edgeKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// findBorderVertices marks vertices touching an edge used by exactly one
// live triangle.
func findBorderVertices(tris [][3]uint32, alive []bool, vertexCount int) []bool {
	counts := make(map[uint64]int)
	for i, t := range tris {
		if !alive[i] {
			continue
		}
		for e := 0; e < 3; e++ {
			counts[edgeKey(t[e], t[(e+1)%3])]++
		}
	}

	border := make([]bool, vertexCount)
	for i, t := range tris {
		if !alive[i] {
			continue
		}
		for e := 0; e < 3; e++ {
			a, b := t[e], t[(e+1)%3]
			if counts[edgeKey(a, b)] == 1 {
				border[a] = true
				border[b] = true
			}
		}
	}
	return border
}

// stillAdjacent reports whether from and to still share a live triangle.
func stillAdjacent(tris [][3]uint32, alive []bool, incident []int32, from, to uint32) bool {
	for _, ti := range incident {
		if !alive[ti] {
			continue
		}
		hasFrom, hasTo := false, false
		for _, v := range tris[ti] {
			if v == from {
				hasFrom = true
			}
			if v == to {
				hasTo = true
			}
		}
		if hasFrom && hasTo {
			return true
		}
	}
	return false
}

// flipsTriangle reports whether collapsing from into to would invert the
// winding of any surviving triangle around from.
func flipsTriangle(positions [][3]float32, tris [][3]uint32, alive []bool, incident []int32, from, to uint32) bool {
	for _, ti := range incident {
		if !alive[ti] {
			continue
		}
		t := tris[ti]
		containsTo := false
		for _, v := range t {
			if v == to {
				containsTo = true
				break
			}
		}
		if containsTo {
			continue // becomes degenerate, not flipped
		}

		var before, after [3]geom.Vec3
		for e, v := range t {
			before[e] = geom.V3(positions[v])
			if v == from {
				after[e] = geom.V3(positions[to])
			} else {
				after[e] = before[e]
			}
		}
		nb := before[1].Sub(before[0]).Cross(before[2].Sub(before[0]))
		na := after[1].Sub(after[0]).Cross(after[2].Sub(after[0]))
		if nb.Dot(na) <= 0 {
			return true
		}
	}
	return false
}

// pruneComponents drops connected components whose bounding extent is
// below maxExtent. The largest component always survives.
func pruneComponents(positions [][3]float32, indices []uint32, maxExtent float64) []uint32 {
	if len(indices) == 0 {
		return indices
	}

	parent := make([]uint32, len(positions))
	for i := range parent {
		parent[i] = uint32(i)
	}
	var find func(uint32) uint32
	find = func(v uint32) uint32 {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}
		return v
	}
	union := func(a, b uint32) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		union(indices[i], indices[i+1])
		union(indices[i+1], indices[i+2])
	}

	type extent struct {
		min, max geom.Vec3
		tris     int
		set      bool
	}
	extents := make(map[uint32]*extent)
	for i := 0; i+2 < len(indices); i += 3 {
		root := find(indices[i])
		e := extents[root]
		if e == nil {
			e = &extent{}
			extents[root] = e
		}
		e.tris++
		for k := 0; k < 3; k++ {
			v := geom.V3(positions[indices[i+k]])
			if !e.set {
				e.min, e.max, e.set = v, v, true
			} else {
				e.min = e.min.Min(v)
				e.max = e.max.Max(v)
			}
		}
	}
	if len(extents) <= 1 {
		return indices
	}

	// Keep the largest component no matter what.
	var largest uint32
	largestTris := -1
	for root, e := range extents {
		if e.tris > largestTris || (e.tris == largestTris && root < largest) {
			largest, largestTris = root, e.tris
		}
	}

	keep := make(map[uint32]bool, len(extents))
	for root, e := range extents {
		size := float64(e.max.Sub(e.min).Length())
		keep[root] = root == largest || size >= maxExtent
	}

	out := make([]uint32, 0, len(indices))
	for i := 0; i+2 < len(indices); i += 3 {
		if keep[find(indices[i])] {
			out = append(out, indices[i], indices[i+1], indices[i+2])
		}
	}
	if len(out) == 0 {
		return indices
	}
	return out
}
