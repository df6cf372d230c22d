package simplify

import (
	"math/rand"
	"testing"

	"github.com/avendale/lodforge/pkg/mesh"
)

// makeGridPart builds a flat w x h quad grid on the XY plane with
// w*h*2 triangles, unit spacing, shared vertices, normals and UVs.
func makeGridPart(w, h int) *mesh.Part {
	p := &mesh.Part{}
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			p.Positions = append(p.Positions, [3]float32{float32(x), float32(y), 0})
			p.Normals = append(p.Normals, [3]float32{0, 0, 1})
			p.TexCoords = append(p.TexCoords, [2]float32{float32(x) / float32(w), float32(y) / float32(h)})
		}
	}
	stride := uint32(w + 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint32(y)*stride + uint32(x)
			b := a + 1
			c := a + stride
			d := c + 1
			p.Indices = append(p.Indices, a, b, c, b, d, c)
		}
	}
	return p
}

func TestSimplifyDegenerateInputsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		part *mesh.Part
	}{
		{"nil part", nil},
		{"empty indices", &mesh.Part{Positions: [][3]float32{{0, 0, 0}}}},
		{"non triangle list", &mesh.Part{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
			Indices:   []uint32{0, 1, 2, 3},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.part, StandardOptions())
			if got != tt.part {
				t.Error("degenerate input must be returned unchanged")
			}
		})
	}
}

func TestSimplifyOutputInvariants(t *testing.T) {
	part := makeGridPart(40, 40) // 3200 triangles

	ratios := []float64{0, 0.05, 0.25, 0.5, 0.75, 0.9}
	for _, ratio := range ratios {
		opts := StandardOptions()
		opts.TargetRatio = ratio
		opts.MinFaceCount = 0

		out := Simplify(part, opts)
		if len(out.Indices)%3 != 0 {
			t.Errorf("ratio %v: index count %d not a multiple of 3", ratio, len(out.Indices))
		}
		if len(out.Indices) > len(part.Indices) {
			t.Errorf("ratio %v: output %d indices exceeds input %d", ratio, len(out.Indices), len(part.Indices))
		}
		if out.Normals != nil && len(out.Normals) != len(out.Positions) {
			t.Errorf("ratio %v: normals/positions length mismatch", ratio)
		}
		if out.TexCoords != nil && len(out.TexCoords) != len(out.Positions) {
			t.Errorf("ratio %v: texcoords/positions length mismatch", ratio)
		}
	}
}

func TestSimplifyMinFaceSkip(t *testing.T) {
	// 150 triangles with Minimal (floor 100): 150 <= 100*1.5, so the part
	// must come back untouched.
	part := makeGridPart(15, 5)
	if part.TriangleCount() != 150 {
		t.Fatalf("fixture has %d triangles, want 150", part.TriangleCount())
	}

	out := Simplify(part, MinimalOptions())
	if out != part {
		t.Error("mesh at the face floor must pass through unchanged")
	}
}

func TestSimplifyMinFaceClamp(t *testing.T) {
	// 400 triangles, floor 100: 400 > 100*1.5, so the target clamps to
	// the floor instead of skipping.
	part := makeGridPart(20, 10)
	opts := StandardOptions()
	opts.TargetRatio = 0.05
	opts.MinFaceCount = 100

	out := Simplify(part, opts)
	if out == part {
		t.Fatal("expected a decimated copy, got the input")
	}
	if got := out.TriangleCount(); got > 100 || got < 1 {
		t.Errorf("triangle count = %d, want in [1, 100]", got)
	}
}

func TestSimplifyKeepRatioPreservesTriangles(t *testing.T) {
	part := makeGridPart(30, 30)

	for _, ratio := range []float64{0.95, 0.97, 1.0} {
		opts := StandardOptions()
		opts.TargetRatio = ratio
		opts.MinFaceCount = 0

		out := Simplify(part, opts)
		if out.TriangleCount() != part.TriangleCount() {
			t.Errorf("ratio %v changed triangle count %d -> %d",
				ratio, part.TriangleCount(), out.TriangleCount())
		}
	}
}

func TestSimplifyStandardScenario(t *testing.T) {
	// 10,000 triangles with the Standard preset: the output lands between
	// the face floor (200) and the 30 percent target (3000).
	part := makeGridPart(100, 50)
	if part.TriangleCount() != 10000 {
		t.Fatalf("fixture has %d triangles, want 10000", part.TriangleCount())
	}

	out := Simplify(part, StandardOptions())
	got := out.TriangleCount()
	if got < 200 || got > 3000 {
		t.Errorf("triangle count = %d, want in [200, 3000]", got)
	}
	if len(out.Indices)%3 != 0 {
		t.Errorf("index count %d not a multiple of 3", len(out.Indices))
	}

	// The optimized order must not be worse than a random order of the
	// same triangles.
	shuffled := shuffleTriangles(out.Indices, 1)
	opt := ACMR(out.Indices, out.VertexCount(), vertexCacheSize)
	naive := ACMR(shuffled, out.VertexCount(), vertexCacheSize)
	if opt > naive+0.01 {
		t.Errorf("optimized ACMR %.3f worse than shuffled %.3f", opt, naive)
	}
}

func TestSimplifySloppyMinimal(t *testing.T) {
	part := makeGridPart(100, 50)

	out := Simplify(part, MinimalOptions())
	got := out.TriangleCount()
	if got < 1 || got > 500 {
		t.Errorf("triangle count = %d, want in [1, 500]", got)
	}
	if len(out.Indices)%3 != 0 {
		t.Errorf("index count %d not a multiple of 3", len(out.Indices))
	}
	if out.VertexCount() > part.VertexCount() {
		t.Errorf("vertex count grew: %d -> %d", part.VertexCount(), out.VertexCount())
	}
}

func TestSimplifyZeroOutputFallsBack(t *testing.T) {
	// All-degenerate triangles: decimation cannot produce anything, so
	// the input must come back untouched.
	part := &mesh.Part{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 0, 1, 1, 1, 2},
	}

	opts := StandardOptions()
	opts.MinFaceCount = 0
	if got := Simplify(part, opts); got != part {
		t.Error("failed simplification must return the input unchanged")
	}
}

func TestSimplifyDoesNotMutateInput(t *testing.T) {
	part := makeGridPart(20, 20)
	indicesBefore := append([]uint32(nil), part.Indices...)
	positionsBefore := append([][3]float32(nil), part.Positions...)

	opts := StandardOptions()
	opts.MinFaceCount = 0
	Simplify(part, opts)

	for i := range indicesBefore {
		if part.Indices[i] != indicesBefore[i] {
			t.Fatal("input index buffer was mutated")
		}
	}
	for i := range positionsBefore {
		if part.Positions[i] != positionsBefore[i] {
			t.Fatal("input position buffer was mutated")
		}
	}
}

func TestSimplifyPruneDropsFragments(t *testing.T) {
	// A big grid plus a far-away splinter triangle. With pruning on, the
	// splinter goes away.
	part := makeGridPart(20, 20)
	base := uint32(len(part.Positions))
	part.Positions = append(part.Positions,
		[3]float32{1000, 1000, 1000},
		[3]float32{1000.1, 1000, 1000},
		[3]float32{1000, 1000.1, 1000},
	)
	part.Normals = append(part.Normals,
		[3]float32{0, 0, 1}, [3]float32{0, 0, 1}, [3]float32{0, 0, 1})
	part.TexCoords = append(part.TexCoords,
		[2]float32{0, 0}, [2]float32{0, 0}, [2]float32{0, 0})
	part.Indices = append(part.Indices, base, base+1, base+2)

	opts := StandardOptions()
	opts.MinFaceCount = 0
	opts.Prune = true
	opts.LockBorder = false

	out := Simplify(part, opts)
	for _, idx := range out.Indices {
		p := out.Positions[idx]
		if p[0] > 500 {
			t.Fatal("disconnected splinter survived pruning")
		}
	}
}

// shuffleTriangles returns the index buffer with whole triangles permuted
// deterministically.
func shuffleTriangles(indices []uint32, seed int64) []uint32 {
	r := rand.New(rand.NewSource(seed))
	tris := len(indices) / 3
	order := r.Perm(tris)
	out := make([]uint32, 0, len(indices))
	for _, t := range order {
		out = append(out, indices[t*3], indices[t*3+1], indices[t*3+2])
	}
	return out
}
