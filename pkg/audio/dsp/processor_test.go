// ABOUTME: Tests for separation, gain and soft clip
// ABOUTME: Checks the exact ratios, clip curve and processing order
package dsp

import (
	"math"
	"testing"
)

func near(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestSeparationApply(t *testing.T) {
	tests := []struct {
		name       string
		mode       Separation
		l, r       float32
		wantL, wantR float32
	}{
		{"off passes through", SeparationOff, 1, -1, 1, -1},
		{"narrow", SeparationNarrow, 1, -1, 0.3, -0.3},
		{"narrow one sided", SeparationNarrow, 1, 0, 0.65, 0.35},
		{"mono cancels", SeparationMono, 1, -1, 0, 0},
		{"mono averages", SeparationMono, 0.5, 0.1, 0.3, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := tt.mode.Apply(tt.l, tt.r)
			if !near(l, tt.wantL, 1e-6) || !near(r, tt.wantR, 1e-6) {
				t.Errorf("Apply(%v, %v) = (%v, %v), want (%v, %v)", tt.l, tt.r, l, r, tt.wantL, tt.wantR)
			}
		})
	}
}

func TestParseSeparation(t *testing.T) {
	tests := []struct {
		in      string
		want    Separation
		wantErr bool
	}{
		{"off", SeparationOff, false},
		{"Narrow", SeparationNarrow, false},
		{"mono", SeparationMono, false},
		{"", SeparationNarrow, false},
		{"wide", SeparationNarrow, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeparation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSeparation(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSeparation(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, s := range []Separation{SeparationOff, SeparationNarrow, SeparationMono} {
		back, err := ParseSeparation(s.String())
		if err != nil || back != s {
			t.Errorf("String/Parse mismatch for %v", s)
		}
	}
}

func TestSoftClip(t *testing.T) {
	if SoftClip(0) != 0 {
		t.Errorf("SoftClip(0) = %v", SoftClip(0))
	}

	for _, x := range []float32{0.1, -0.1, 0.05, -0.05, 0.01, -0.01} {
		got := SoftClip(x)
		if math.Abs(float64((got-x)/x)) > 0.01 {
			t.Errorf("SoftClip(%v) = %v, not within 1%%", x, got)
		}
	}

	for _, x := range []float32{5, -5, 100, -1e6} {
		once := SoftClip(x)
		twice := SoftClip(once)
		if once < -ClipThreshold || once > ClipThreshold {
			t.Errorf("SoftClip(%v) = %v outside threshold", x, once)
		}
		if !near(once, twice, 1e-6) {
			t.Errorf("SoftClip not idempotent at %v: %v vs %v", x, once, twice)
		}
	}
}

func TestProcessorOrder(t *testing.T) {
	p := NewProcessor(SeparationNarrow)
	left := []float32{1, 4}
	right := []float32{-1, 4}
	p.Process(left, right)

	// separation, then /2, then clip
	if !near(left[0], 0.15, 1e-6) || !near(right[0], -0.15, 1e-6) {
		t.Errorf("frame 0 = (%v, %v), want (0.15, -0.15)", left[0], right[0])
	}
	if !near(left[1], ClipThreshold, 1e-6) || !near(right[1], ClipThreshold, 1e-6) {
		t.Errorf("frame 1 = (%v, %v), want clipped", left[1], right[1])
	}
}

func TestProcessorSetSeparation(t *testing.T) {
	p := NewProcessor(SeparationNarrow)
	if p.Separation() != SeparationNarrow {
		t.Fatalf("initial mode = %v", p.Separation())
	}
	p.SetSeparation(SeparationMono)

	left, right := []float32{1}, []float32{-1}
	p.Process(left, right)
	if left[0] != 0 || right[0] != 0 {
		t.Errorf("mono output = (%v, %v), want (0, 0)", left[0], right[0])
	}
}

func BenchmarkProcessor(b *testing.B) {
	p := NewProcessor(SeparationNarrow)
	left := make([]float32, 2048)
	right := make([]float32, 2048)
	for i := range left {
		left[i] = float32(math.Sin(float64(i) / 10))
		right[i] = float32(math.Cos(float64(i) / 10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(left, right)
	}
}
