// Package texture computes per-channel target resolutions and performs
// format-preserving texture downsampling.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"github.com/avendale/lodforge/internal/assets"
)

// Resolution bounds for resampled textures, in pixels.
const (
	minDimension = 32
	maxDimension = 4096
)

// skipRatio disables the texture pass entirely for near-original quality
// requests: the savings are not worth the decode/encode risk.
const skipRatio = 0.9

// jpegQuality is the re-encode quality for JPEG sources.
const jpegQuality = 90

// Resampler downsamples textures per material channel. Failures are
// non-fatal and counted; the caller keeps the original texture.
type Resampler struct {
	// Failures counts decode/filter/encode errors across all calls.
	Failures int
}

// channelMultiplier biases how aggressively each material channel is
// downsampled relative to the geometry reduction.
func channelMultiplier(ch assets.Channel) float64 {
	switch ch {
	case assets.ChannelBaseColor:
		return 1.0
	case assets.ChannelOcclusion:
		return 0.7
	case assets.ChannelMetallicRoughness:
		return 0.8
	case assets.ChannelNormal, assets.ChannelEmissive:
		return 0.9
	default:
		return 0.75
	}
}

// SkipPass reports whether the texture pass should be skipped for the
// whole asset at the given simplification ratio.
func SkipPass(simplifyRatio float64) bool {
	return simplifyRatio > skipRatio
}

// targetDimension maps a source dimension to its resampled size: scaled
// by ratio and the channel multiplier, snapped down to a power of two and
// clamped to [32, 4096].
func targetDimension(maxDim int, simplifyRatio, multiplier float64) int {
	scaled := int(float64(maxDim) * simplifyRatio * multiplier)
	pow2 := minDimension
	for pow2*2 <= scaled && pow2*2 <= maxDimension {
		pow2 *= 2
	}
	return pow2
}

// Resample returns a downsampled copy of the texture for the given
// channel, or nil when the original should be kept (no change warranted,
// or a non-fatal failure occurred).
func (r *Resampler) Resample(t *assets.Texture, ch assets.Channel, simplifyRatio float64) *assets.Texture {
	if t == nil || len(t.Data) == 0 || SkipPass(simplifyRatio) {
		return nil
	}

	mime := t.MIME
	if mime == "" {
		mime = assets.SniffMIME(t.Data)
	}
	src, err := decode(mime, t.Data)
	if err != nil {
		r.Failures++
		return nil
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	maxDim := w
	if h > maxDim {
		maxDim = h
	}
	if maxDim <= 0 {
		r.Failures++
		return nil
	}

	target := targetDimension(maxDim, simplifyRatio, channelMultiplier(ch))
	if target >= maxDim {
		return nil // already at or below the target resolution
	}

	scale := float64(target) / float64(maxDim)
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := scaleSameKind(src, newW, newH)

	data, err := encode(mime, dst)
	if err != nil {
		r.Failures++
		return nil
	}

	return &assets.Texture{
		Name: t.Name,
		MIME: mime,
		Data: data,
	}
}

// decode decodes an encoded texture payload by MIME type.
func decode(mime string, data []byte) (image.Image, error) {
	switch mime {
	case "image/png":
		return png.Decode(bytes.NewReader(data))
	case "image/jpeg":
		return jpeg.Decode(bytes.NewReader(data))
	case "image/webp":
		return webp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported texture format %q", mime)
	}
}

// encode re-encodes an image in the same container format it came from.
func encode(mime string, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch mime {
	case "image/png":
		err = png.Encode(&buf, img)
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case "image/webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: 90})
	default:
		err = fmt.Errorf("unsupported texture format %q", mime)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scaleSameKind resamples with a Catmull-Rom kernel onto a destination of
// the same image kind as the source, so a single-channel source stays
// single-channel instead of silently widening to RGBA.
func scaleSameKind(src image.Image, w, h int) image.Image {
	rect := image.Rect(0, 0, w, h)

	var dst draw.Image
	switch src.(type) {
	case *image.Gray:
		dst = image.NewGray(rect)
	case *image.Gray16:
		dst = image.NewGray16(rect)
	case *image.NRGBA:
		dst = image.NewNRGBA(rect)
	case *image.NRGBA64:
		dst = image.NewNRGBA64(rect)
	case *image.RGBA64:
		dst = image.NewRGBA64(rect)
	case *image.CMYK:
		dst = image.NewCMYK(rect)
	case *image.YCbCr, *image.RGBA:
		dst = image.NewRGBA(rect)
	default:
		dst = image.NewRGBA(rect)
	}

	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
	return dst
}
