package simplify

import (
	"testing"

	"github.com/avendale/lodforge/pkg/mesh"
)

func TestWeldMergesDuplicates(t *testing.T) {
	// Two triangles sharing an edge, but with the shared vertices
	// duplicated (unindexed-style data).
	p := &mesh.Part{
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		},
		Normals: [][3]float32{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		},
		Indices: []uint32{0, 1, 2, 3, 4, 5},
	}

	out := Weld(p)
	if out == p {
		t.Fatal("expected a welded copy")
	}
	if out.VertexCount() != 4 {
		t.Errorf("vertex count = %d, want 4", out.VertexCount())
	}
	if out.TriangleCount() != 2 {
		t.Errorf("triangle count = %d, want 2", out.TriangleCount())
	}
	if len(out.Normals) != out.VertexCount() {
		t.Errorf("normals length %d != vertex count %d", len(out.Normals), out.VertexCount())
	}
}

func TestWeldKeepsDistinctAttributes(t *testing.T) {
	// Same position but different normals must not merge.
	p := &mesh.Part{
		Positions: [][3]float32{{0, 0, 0}, {0, 0, 0}, {1, 0, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 1, 0}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
	}

	out := Weld(p)
	if out != p {
		t.Error("vertices with distinct normals must not be merged")
	}
}

func TestWeldNoDuplicates(t *testing.T) {
	p := makeGridPart(4, 4)
	if out := Weld(p); out != p {
		t.Error("an already-indexed mesh must pass through unchanged")
	}
}
