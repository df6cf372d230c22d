package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/avendale/lodforge/internal/assets"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func makePNGTexture(t *testing.T, w, h int) *assets.Texture {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return &assets.Texture{Name: "albedo", MIME: "image/png", Data: encodePNG(t, img)}
}

func TestTargetDimension(t *testing.T) {
	tests := []struct {
		name   string
		maxDim int
		ratio  float64
		mult   float64
		want   int
	}{
		{"half of 1024", 1024, 0.5, 1.0, 512},
		{"rounds down to pow2", 1024, 0.4, 1.0, 256},
		{"channel bias shrinks further", 1024, 0.5, 0.7, 256},
		{"clamped to floor", 64, 0.05, 1.0, 32},
		{"clamped to ceiling", 1 << 20, 0.5, 1.0, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := targetDimension(tt.maxDim, tt.ratio, tt.mult)
			if got != tt.want {
				t.Errorf("targetDimension(%d, %v, %v) = %d, want %d",
					tt.maxDim, tt.ratio, tt.mult, got, tt.want)
			}
		})
	}
}

func TestResampleShrinksPNG(t *testing.T) {
	var r Resampler
	src := makePNGTexture(t, 256, 128)

	out := r.Resample(src, assets.ChannelBaseColor, 0.5)
	if out == nil {
		t.Fatal("expected a resampled texture, got nil")
	}
	if out.MIME != "image/png" {
		t.Errorf("MIME = %q, want image/png", out.MIME)
	}

	img, err := png.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 128 || b.Dy() != 64 {
		t.Errorf("output size %dx%d, want 128x64", b.Dx(), b.Dy())
	}
	if r.Failures != 0 {
		t.Errorf("Failures = %d, want 0", r.Failures)
	}
}

func TestResamplePreservesGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 128, 128))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	src := &assets.Texture{Name: "ao", MIME: "image/png", Data: encodePNG(t, img)}

	var r Resampler
	out := r.Resample(src, assets.ChannelOcclusion, 0.4)
	if out == nil {
		t.Fatal("expected a resampled texture, got nil")
	}
	decoded, err := png.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if _, ok := decoded.(*image.Gray); !ok {
		t.Errorf("output kind = %T, want *image.Gray", decoded)
	}
}

func TestResampleKeepsJPEGFormat(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	src := &assets.Texture{Name: "photo", MIME: "image/jpeg", Data: buf.Bytes()}

	var r Resampler
	out := r.Resample(src, assets.ChannelBaseColor, 0.25)
	if out == nil {
		t.Fatal("expected a resampled texture, got nil")
	}
	if got := assets.SniffMIME(out.Data); got != "image/jpeg" {
		t.Errorf("output sniffed as %q, want image/jpeg", got)
	}
}

func TestResampleSkips(t *testing.T) {
	var r Resampler
	src := makePNGTexture(t, 256, 256)

	if out := r.Resample(src, assets.ChannelBaseColor, 0.95); out != nil {
		t.Error("expected nil above the skip ratio")
	}
	if out := r.Resample(nil, assets.ChannelBaseColor, 0.5); out != nil {
		t.Error("expected nil for nil texture")
	}
	// Tiny source already below the floor dimension.
	tiny := makePNGTexture(t, 16, 16)
	if out := r.Resample(tiny, assets.ChannelBaseColor, 0.5); out != nil {
		t.Error("expected nil when target >= source")
	}
	if r.Failures != 0 {
		t.Errorf("Failures = %d, want 0", r.Failures)
	}
}

func TestResampleSniffsMissingMIME(t *testing.T) {
	var r Resampler
	src := makePNGTexture(t, 256, 256)
	src.MIME = ""

	out := r.Resample(src, assets.ChannelBaseColor, 0.5)
	if out == nil {
		t.Fatal("expected a resampled texture, got nil")
	}
	if out.MIME != "image/png" {
		t.Errorf("MIME = %q, want image/png", out.MIME)
	}
	if _, err := png.Decode(bytes.NewReader(out.Data)); err != nil {
		t.Errorf("output not re-encoded as png: %v", err)
	}
	if r.Failures != 0 {
		t.Errorf("Failures = %d, want 0", r.Failures)
	}
}

func TestResampleCorruptData(t *testing.T) {
	var r Resampler
	src := &assets.Texture{Name: "bad", MIME: "image/png", Data: []byte("not a png")}

	if out := r.Resample(src, assets.ChannelBaseColor, 0.5); out != nil {
		t.Error("expected nil for corrupt payload")
	}
	if r.Failures != 1 {
		t.Errorf("Failures = %d, want 1", r.Failures)
	}
}
