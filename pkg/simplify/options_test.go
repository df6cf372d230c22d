package simplify

import (
	"errors"
	"testing"
)

func TestPresetValues(t *testing.T) {
	tests := []struct {
		name string
		got  Options
		want Options
	}{
		{"original", OriginalOptions(), Options{
			TargetRatio: 1.00, ErrorThreshold: 0.00, MinFaceCount: 0,
			LockBorder: true, AttributeWeight: 1.0,
		}},
		{"standard", StandardOptions(), Options{
			TargetRatio: 0.30, ErrorThreshold: 0.01, MinFaceCount: 200,
			LockBorder: true, AttributeWeight: 0.5,
		}},
		{"minimal", MinimalOptions(), Options{
			TargetRatio: 0.05, ErrorThreshold: 0.30, MinFaceCount: 100,
			Sloppy: true, IgnoreAttributes: true, Prune: true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("preset = %+v, want %+v", tt.got, tt.want)
			}
			if err := tt.got.Validate(); err != nil {
				t.Errorf("preset does not validate: %v", err)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"default standard", func(o *Options) {}, false},
		{"ratio below zero", func(o *Options) { o.TargetRatio = -0.1 }, true},
		{"ratio above one", func(o *Options) { o.TargetRatio = 1.5 }, true},
		{"weight below zero", func(o *Options) { o.AttributeWeight = -1 }, true},
		{"weight above one", func(o *Options) { o.AttributeWeight = 2 }, true},
		{"negative threshold", func(o *Options) { o.ErrorThreshold = -0.01 }, true},
		{"negative face count", func(o *Options) { o.MinFaceCount = -1 }, true},
		{"boundary values", func(o *Options) {
			o.TargetRatio = 0
			o.AttributeWeight = 1
			o.ErrorThreshold = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := StandardOptions()
			tt.mutate(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("error %v is not ErrInvalidParameter", err)
			}
		})
	}
}

func TestCustomDefaultsFromStandard(t *testing.T) {
	ratio := 0.42
	q, err := Custom(CustomParams{TargetRatio: &ratio})
	if err != nil {
		t.Fatalf("Custom() error = %v", err)
	}

	got := q.Resolve()
	want := StandardOptions()
	want.TargetRatio = 0.42
	if got != want {
		t.Errorf("resolved = %+v, want Standard with ratio 0.42: %+v", got, want)
	}
}

func TestCustomRequiresRatio(t *testing.T) {
	sloppy := true
	_, err := Custom(CustomParams{Sloppy: &sloppy})
	if !errors.Is(err, ErrMissingRatio) {
		t.Errorf("Custom() error = %v, want ErrMissingRatio", err)
	}
}

func TestCustomRejectsInvalid(t *testing.T) {
	ratio := 1.3
	_, err := Custom(CustomParams{TargetRatio: &ratio})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Custom() error = %v, want ErrInvalidParameter", err)
	}
}

func TestQualitySuffix(t *testing.T) {
	ratio := 0.42
	custom, err := Custom(CustomParams{TargetRatio: &ratio})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		q    Quality
		want string
	}{
		{Original(), "original"},
		{Standard(), "standard"},
		{Minimal(), "minimal"},
		{custom, "custom_42"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.q.Suffix(); got != tt.want {
				t.Errorf("Suffix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQualityOrdering(t *testing.T) {
	if !Minimal().Less(Standard()) {
		t.Error("Minimal should order before Standard")
	}
	if !Standard().Less(Original()) {
		t.Error("Standard should order before Original")
	}
	ratio := 0.30
	custom, _ := Custom(CustomParams{TargetRatio: &ratio})
	if !custom.Equal(Standard()) {
		t.Error("custom 0.30 should equal Standard by ratio")
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"original", "original", false},
		{"Standard", "standard", false},
		{" MINIMAL ", "minimal", false},
		{"ultra", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := ParseQuality(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuality(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && q.Suffix() != tt.want {
				t.Errorf("ParseQuality(%q) = %s, want %s", tt.in, q.Suffix(), tt.want)
			}
		})
	}
}

func TestZeroQualityIsOriginal(t *testing.T) {
	var q Quality
	if q.Suffix() != "original" {
		t.Errorf("zero Quality suffix = %q, want original", q.Suffix())
	}
	if q.Resolve() != OriginalOptions() {
		t.Error("zero Quality must resolve to the Original preset")
	}
}
