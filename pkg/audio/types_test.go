// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion functions
package audio

import "testing"

func TestFloatToSample(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		bitDepth int
		expected int32
	}{
		{"zero 16", 0, 16, 0},
		{"full 16", 1, 16, Max16Bit},
		{"negative full 16", -1, 16, -Max16Bit},
		{"half 16", 0.5, 16, 16383},
		{"clamp high 16", 2, 16, Max16Bit},
		{"clamp low 16", -2, 16, Min16Bit},
		{"full 24", 1, 24, Max24Bit},
		{"clamp low 24", -3, 24, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FloatToSample(tt.input, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestInterleave(t *testing.T) {
	left := []float32{1, 2, 3}
	right := []float32{-1, -2, -3}

	got := Interleave(nil, left, right)
	want := []float32{1, -1, 2, -2, 3, -3}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	// reuses capacity
	reused := Interleave(got[:0], left[:2], right[:2])
	if &reused[0] != &got[0] {
		t.Error("expected dst to be reused")
	}
	if len(reused) != 4 {
		t.Errorf("expected 4 samples, got %d", len(reused))
	}
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"cd", Format{44100, 2, 16}, false},
		{"hires", Format{96000, 2, 24}, false},
		{"no rate", Format{0, 2, 16}, true},
		{"no channels", Format{44100, 0, 16}, true},
		{"float", Format{44100, 2, 32}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBufferFrames(t *testing.T) {
	b := Buffer{Samples: make([]int32, 10), Format: Format{SampleRate: 44100, Channels: 2, BitDepth: 16}}
	if b.Frames() != 5 {
		t.Errorf("expected 5 frames, got %d", b.Frames())
	}
	empty := Buffer{}
	if empty.Frames() != 0 {
		t.Errorf("expected 0 frames, got %d", empty.Frames())
	}
}

func TestRoundTrip16Bit(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}

	for _, original := range samples {
		sample32 := SampleFromInt16(original)
		result := SampleToInt16(sample32)
		if result != original {
			t.Errorf("round-trip failed: %d -> %d -> %d", original, sample32, result)
		}
	}
}
