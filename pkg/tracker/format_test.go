// ABOUTME: Tests for format tag mapping and decoder selection
// ABOUTME: Covers extensions, MIME aliases and unknown tags
package tracker

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		tag  string
		want Format
	}{
		{"s3m", FormatScreamTracker},
		{"audio/x-s3m", FormatScreamTracker},
		{"mod", FormatProtracker},
		{"audio/x-mod", FormatProtracker},
		{"xm", FormatFasttracker},
		{"audio/x-xm", FormatFasttracker},
		{".XM", FormatFasttracker},
		{"MOD", FormatProtracker},
		{" s3m ", FormatScreamTracker},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseFormat(tt.tag)
			if err != nil {
				t.Fatalf("ParseFormat(%q) error: %v", tt.tag, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestParseFormatUnknown(t *testing.T) {
	for _, tag := range []string{"", "it", "mp3", "audio/mpeg", "s3mx"} {
		t.Run(tag, func(t *testing.T) {
			_, err := ParseFormat(tag)
			var unknown *UnknownFormatError
			if !errors.As(err, &unknown) {
				t.Fatalf("expected UnknownFormatError, got %v", err)
			}
			if unknown.Tag != tag {
				t.Errorf("Tag = %q, want %q", unknown.Tag, tag)
			}
			if want := "unknown mod format " + tag; err.Error() != want {
				t.Errorf("Error() = %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("/music/space_debris.MOD")
	if err != nil {
		t.Fatalf("FormatFromPath error: %v", err)
	}
	if f != FormatProtracker {
		t.Errorf("expected mod, got %v", f)
	}

	if _, err := FormatFromPath("/music/readme"); err == nil {
		t.Error("expected error for path without extension")
	}
}

func TestNewForTag(t *testing.T) {
	tests := []struct {
		tag  string
		want Format
	}{
		{"s3m", FormatScreamTracker},
		{"mod", FormatProtracker},
		{"xm", FormatFasttracker},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			dec, err := NewForTag(tt.tag)
			if err != nil {
				t.Fatalf("NewForTag error: %v", err)
			}
			if dec.Format() != tt.want {
				t.Errorf("Format() = %v, want %v", dec.Format(), tt.want)
			}
			if dec.Format().String() != tt.tag {
				t.Errorf("String() = %q, want %q", dec.Format().String(), tt.tag)
			}
			if dec.Channels() != 0 || dec.Title() != "" {
				t.Error("empty decoder should report no metadata")
			}
		})
	}
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New(Format(42))
	var unknown *UnknownFormatError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFormatError, got %v", err)
	}
}
