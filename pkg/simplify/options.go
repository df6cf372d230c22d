// Package simplify implements mesh decimation and post-decimation buffer
// layout optimization for LOD generation.
package simplify

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Option validation errors.
var (
	ErrInvalidParameter = errors.New("simplification parameter out of range")
	ErrMissingRatio     = errors.New("custom quality requires an explicit target ratio")
	ErrUnknownQuality   = errors.New("unknown quality level")
)

// Options describes one decimation run. Values are immutable once built;
// use a preset or Custom to construct a validated instance.
type Options struct {
	// TargetRatio is the fraction of triangles to retain, in [0, 1].
	TargetRatio float64
	// ErrorThreshold is the maximum geometric error tolerated, as a
	// fraction of the mesh bounding box diagonal.
	ErrorThreshold float64
	// MinFaceCount is the floor below which decimation is skipped or
	// clamped.
	MinFaceCount int
	// Sloppy selects the fast, attribute-agnostic grid decimation.
	Sloppy bool
	// LockBorder forbids removal of open-boundary vertices.
	LockBorder bool
	// AttributeWeight is the importance of normal preservation relative
	// to position, in [0, 1].
	AttributeWeight float64
	// IgnoreAttributes forces position-only decimation even when normals
	// are present.
	IgnoreAttributes bool
	// Prune permits deletion of topologically disconnected fragments.
	Prune bool
	// WeldVertices enables the optional vertex dedup/remap pre-stage.
	WeldVertices bool
}

// Validate checks that all fields are within their documented ranges.
func (o Options) Validate() error {
	if o.TargetRatio < 0 || o.TargetRatio > 1 || math.IsNaN(o.TargetRatio) {
		return fmt.Errorf("%w: target ratio %v not in [0,1]", ErrInvalidParameter, o.TargetRatio)
	}
	if o.AttributeWeight < 0 || o.AttributeWeight > 1 || math.IsNaN(o.AttributeWeight) {
		return fmt.Errorf("%w: attribute weight %v not in [0,1]", ErrInvalidParameter, o.AttributeWeight)
	}
	if o.ErrorThreshold < 0 || math.IsNaN(o.ErrorThreshold) {
		return fmt.Errorf("%w: error threshold %v negative", ErrInvalidParameter, o.ErrorThreshold)
	}
	if o.MinFaceCount < 0 {
		return fmt.Errorf("%w: min face count %d negative", ErrInvalidParameter, o.MinFaceCount)
	}
	return nil
}

// OriginalOptions returns the Original preset: no decimation, cache
// optimization only.
func OriginalOptions() Options {
	return Options{
		TargetRatio:     1.00,
		ErrorThreshold:  0.00,
		MinFaceCount:    0,
		LockBorder:      true,
		AttributeWeight: 1.0,
	}
}

// StandardOptions returns the Standard preset: balanced reduction.
func StandardOptions() Options {
	return Options{
		TargetRatio:     0.30,
		ErrorThreshold:  0.01,
		MinFaceCount:    200,
		LockBorder:      true,
		AttributeWeight: 0.5,
	}
}

// MinimalOptions returns the Minimal preset: aggressive sloppy reduction.
func MinimalOptions() Options {
	return Options{
		TargetRatio:      0.05,
		ErrorThreshold:   0.30,
		MinFaceCount:     100,
		Sloppy:           true,
		AttributeWeight:  0.0,
		IgnoreAttributes: true,
		Prune:            true,
	}
}

// CustomParams carries caller-supplied values for a custom quality level.
// Nil fields default to the Standard preset; TargetRatio is mandatory.
type CustomParams struct {
	TargetRatio      *float64
	ErrorThreshold   *float64
	MinFaceCount     *int
	Sloppy           *bool
	LockBorder       *bool
	AttributeWeight  *float64
	IgnoreAttributes *bool
	Prune            *bool
	WeldVertices     *bool
}

// NewCustomOptions builds validated Options from CustomParams.
func NewCustomOptions(p CustomParams) (Options, error) {
	if p.TargetRatio == nil {
		return Options{}, ErrMissingRatio
	}

	o := StandardOptions()
	o.TargetRatio = *p.TargetRatio
	if p.ErrorThreshold != nil {
		o.ErrorThreshold = *p.ErrorThreshold
	}
	if p.MinFaceCount != nil {
		o.MinFaceCount = *p.MinFaceCount
	}
	if p.Sloppy != nil {
		o.Sloppy = *p.Sloppy
	}
	if p.LockBorder != nil {
		o.LockBorder = *p.LockBorder
	}
	if p.AttributeWeight != nil {
		o.AttributeWeight = *p.AttributeWeight
	}
	if p.IgnoreAttributes != nil {
		o.IgnoreAttributes = *p.IgnoreAttributes
	}
	if p.Prune != nil {
		o.Prune = *p.Prune
	}
	if p.WeldVertices != nil {
		o.WeldVertices = *p.WeldVertices
	}

	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

type qualityKind int

const (
	kindOriginal qualityKind = iota
	kindStandard
	kindMinimal
	kindCustom
)

// Quality is a tagged quality level: one of the three presets or a custom
// parameter set. The zero value is Original.
type Quality struct {
	kind   qualityKind
	custom Options
}

// Original returns the Original quality level.
func Original() Quality { return Quality{kind: kindOriginal} }

// Standard returns the Standard quality level.
func Standard() Quality { return Quality{kind: kindStandard} }

// Minimal returns the Minimal quality level.
func Minimal() Quality { return Quality{kind: kindMinimal} }

// Custom returns a custom quality level built from params. The target
// ratio is mandatory; all other omitted fields default to Standard.
func Custom(p CustomParams) (Quality, error) {
	opts, err := NewCustomOptions(p)
	if err != nil {
		return Quality{}, err
	}
	return Quality{kind: kindCustom, custom: opts}, nil
}

// CustomFromOptions wraps already-validated Options as a custom level.
func CustomFromOptions(o Options) (Quality, error) {
	if err := o.Validate(); err != nil {
		return Quality{}, err
	}
	return Quality{kind: kindCustom, custom: o}, nil
}

// Resolve returns the canonical Options for this quality level.
func (q Quality) Resolve() Options {
	switch q.kind {
	case kindStandard:
		return StandardOptions()
	case kindMinimal:
		return MinimalOptions()
	case kindCustom:
		return q.custom
	default:
		return OriginalOptions()
	}
}

// Suffix returns the deterministic cache key suffix for this level.
func (q Quality) Suffix() string {
	switch q.kind {
	case kindStandard:
		return "standard"
	case kindMinimal:
		return "minimal"
	case kindCustom:
		return fmt.Sprintf("custom_%d", int(math.Round(q.custom.TargetRatio*100)))
	default:
		return "original"
	}
}

// String returns the suffix.
func (q Quality) String() string { return q.Suffix() }

// Less orders quality levels by resolved target ratio, most aggressive
// first.
func (q Quality) Less(other Quality) bool {
	return q.Resolve().TargetRatio < other.Resolve().TargetRatio
}

// Equal reports whether two levels resolve to the same target ratio.
func (q Quality) Equal(other Quality) bool {
	return q.Resolve().TargetRatio == other.Resolve().TargetRatio
}

// ParseQuality maps a preset name to its quality level. Custom levels are
// built from Options, not parsed from strings.
func ParseQuality(name string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "original":
		return Original(), nil
	case "standard":
		return Standard(), nil
	case "minimal":
		return Minimal(), nil
	default:
		return Quality{}, fmt.Errorf("%w: %q", ErrUnknownQuality, name)
	}
}
