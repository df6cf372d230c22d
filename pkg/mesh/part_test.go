package mesh

import "testing"

func TestPartClone(t *testing.T) {
	p := &Part{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TexCoords: [][2]float32{{0, 0}, {1, 0}, {0, 1}},
	}

	c := p.Clone()
	if c.TriangleCount() != 1 || c.VertexCount() != 3 {
		t.Fatalf("clone counts = %d tris, %d verts", c.TriangleCount(), c.VertexCount())
	}

	// Mutating the clone must not affect the source.
	c.Positions[0] = [3]float32{9, 9, 9}
	c.Indices[0] = 2
	if p.Positions[0] != [3]float32{0, 0, 0} || p.Indices[0] != 0 {
		t.Error("clone shares buffers with source")
	}
}

func TestPartCloneNil(t *testing.T) {
	var p *Part
	if p.Clone() != nil {
		t.Error("nil.Clone() should be nil")
	}
}

func TestHasValidIndices(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    bool
	}{
		{"empty", nil, false},
		{"one triangle", []uint32{0, 1, 2}, true},
		{"not a multiple of 3", []uint32{0, 1, 2, 3}, false},
		{"two triangles", []uint32{0, 1, 2, 2, 1, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Part{Indices: tt.indices}
			if got := p.HasValidIndices(); got != tt.want {
				t.Errorf("HasValidIndices() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartBounds(t *testing.T) {
	p := &Part{Positions: [][3]float32{{-1, 0, 2}, {3, -2, 0}, {0, 1, 1}}}
	min, max := p.Bounds()
	if min.X != -1 || min.Y != -2 || min.Z != 0 {
		t.Errorf("min = %v", min)
	}
	if max.X != 3 || max.Y != 1 || max.Z != 2 {
		t.Errorf("max = %v", max)
	}
}
