// Package mesh defines the drawable geometry unit shared by the asset model
// and the simplifier.
package mesh

import "github.com/avendale/lodforge/pkg/geom"

// Part is one drawable primitive: a triangle list with optional per-vertex
// attribute streams. Normals and TexCoords, when present, have the same
// length as Positions.
type Part struct {
	Positions [][3]float32
	Indices   []uint32
	Normals   [][3]float32
	TexCoords [][2]float32
}

// TriangleCount returns the number of triangles in the index buffer.
func (p *Part) TriangleCount() int {
	return len(p.Indices) / 3
}

// VertexCount returns the number of vertices in the position stream.
func (p *Part) VertexCount() int {
	return len(p.Positions)
}

// HasValidIndices reports whether the part carries a non-empty triangle
// list index buffer.
func (p *Part) HasValidIndices() bool {
	return len(p.Indices) > 0 && len(p.Indices)%3 == 0
}

// Clone returns a deep copy of the part.
func (p *Part) Clone() *Part {
	if p == nil {
		return nil
	}
	out := &Part{}
	if p.Positions != nil {
		out.Positions = make([][3]float32, len(p.Positions))
		copy(out.Positions, p.Positions)
	}
	if p.Indices != nil {
		out.Indices = make([]uint32, len(p.Indices))
		copy(out.Indices, p.Indices)
	}
	if p.Normals != nil {
		out.Normals = make([][3]float32, len(p.Normals))
		copy(out.Normals, p.Normals)
	}
	if p.TexCoords != nil {
		out.TexCoords = make([][2]float32, len(p.TexCoords))
		copy(out.TexCoords, p.TexCoords)
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the position stream.
// Returns zero vectors for an empty part.
func (p *Part) Bounds() (min, max geom.Vec3) {
	if len(p.Positions) == 0 {
		return geom.Vec3{}, geom.Vec3{}
	}
	min = geom.V3(p.Positions[0])
	max = min
	for _, pos := range p.Positions[1:] {
		v := geom.V3(pos)
		min = min.Min(v)
		max = max.Max(v)
	}
	return min, max
}

// BoundsDiagonal returns the length of the bounding box diagonal.
func (p *Part) BoundsDiagonal() float32 {
	min, max := p.Bounds()
	return max.Sub(min).Length()
}
