package simplify

import "github.com/avendale/lodforge/pkg/mesh"

// weldVertex is the full vertex tuple used for exact deduplication.
type weldVertex struct {
	pos    [3]float32
	normal [3]float32
	uv     [2]float32
}

// Weld is the optional vertex-deduplication pre-stage: vertices with
// bitwise-identical position, normal and texture coordinate are merged and
// the index buffer is remapped accordingly. It is independent of the
// decimation pipeline and disabled by default (Options.WeldVertices).
func Weld(p *mesh.Part) *mesh.Part {
	if p == nil || len(p.Positions) == 0 {
		return p
	}

	lookup := make(map[weldVertex]uint32, len(p.Positions))
	remap := make([]uint32, len(p.Positions))
	var positions [][3]float32
	var normals [][3]float32
	var texCoords [][2]float32

	for i := range p.Positions {
		key := weldVertex{pos: p.Positions[i]}
		if i < len(p.Normals) {
			key.normal = p.Normals[i]
		}
		if i < len(p.TexCoords) {
			key.uv = p.TexCoords[i]
		}

		if existing, ok := lookup[key]; ok {
			remap[i] = existing
			continue
		}

		next := uint32(len(positions))
		lookup[key] = next
		remap[i] = next
		positions = append(positions, p.Positions[i])
		if p.Normals != nil {
			normals = append(normals, key.normal)
		}
		if p.TexCoords != nil {
			texCoords = append(texCoords, key.uv)
		}
	}

	if len(positions) == len(p.Positions) {
		return p // nothing to merge
	}

	indices := make([]uint32, len(p.Indices))
	for i, idx := range p.Indices {
		if int(idx) < len(remap) {
			indices[i] = remap[idx]
		}
	}

	return &mesh.Part{
		Positions: positions,
		Indices:   indices,
		Normals:   normals,
		TexCoords: texCoords,
	}
}
