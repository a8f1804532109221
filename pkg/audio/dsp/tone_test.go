// ABOUTME: Tests for the tone shaping stage
// ABOUTME: Checks Nyquist bypass, attenuation and runtime cutoff changes
package dsp

import (
	"math"
	"testing"
)

func sine(freq, rate float64, n int) ([]float32, []float32) {
	l := make([]float32, n)
	r := make([]float32, n)
	for i := range l {
		v := float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate))
		l[i], r[i] = v, v
	}
	return l, r
}

func rms(buf []float32) float64 {
	var sum float64
	for _, v := range buf {
		sum += float64(v * v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestBiquadBypass(t *testing.T) {
	tests := []struct {
		name       string
		cutoff     float64
		sampleRate float64
		bypass     bool
	}{
		{"fixed at 44.1k", FixedCutoff, 44100, true},
		{"filter off at 44.1k", FilterOffCutoff, 44100, true},
		{"filter off at 96k", FilterOffCutoff, 96000, false},
		{"filter on", FilterOnCutoff, 44100, false},
		{"amiga 500", Amiga500Cutoff, 48000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Biquad
			b.SetLowPass(tt.cutoff, tt.sampleRate)
			if b.Bypassed() != tt.bypass {
				t.Errorf("Bypassed = %v, want %v", b.Bypassed(), tt.bypass)
			}
		})
	}
}

func TestToneStageBypassIsIdentity(t *testing.T) {
	ts := NewToneStage(44100, false, FilterCutoff(false))
	l, r := sine(1000, 44100, 512)
	wantL := append([]float32(nil), l...)
	ts.Process(l, r)
	for i := range l {
		if l[i] != wantL[i] {
			t.Fatalf("sample %d changed: %v -> %v", i, wantL[i], l[i])
		}
	}
}

func TestToneStageFilterAttenuates(t *testing.T) {
	ts := NewToneStage(44100, false, FilterCutoff(false))
	ts.SetFilterCutoff(FilterCutoff(true))
	if ts.FilterCutoff() != FilterOnCutoff {
		t.Fatalf("FilterCutoff = %v", ts.FilterCutoff())
	}

	high, highR := sine(15000, 44100, 4096)
	before := rms(high[2048:])
	ts.Process(high, highR)
	after := rms(high[2048:])
	if after > before*0.2 {
		t.Errorf("15kHz not attenuated: rms %f -> %f", before, after)
	}

	low, lowR := sine(200, 44100, 4096)
	ts2 := NewToneStage(44100, false, FilterCutoff(true))
	before = rms(low[2048:])
	ts2.Process(low, lowR)
	after = rms(low[2048:])
	if math.Abs(after-before) > before*0.05 {
		t.Errorf("200Hz changed too much: rms %f -> %f", before, after)
	}
}

func TestToneStageAmiga500(t *testing.T) {
	ts := NewToneStage(44100, true, FilterCutoff(false))
	l, r := sine(12000, 44100, 4096)
	before := rms(l[2048:])
	ts.Process(l, r)
	if after := rms(l[2048:]); after > before*0.5 {
		t.Errorf("12kHz through 6kHz low-pass: rms %f -> %f", before, after)
	}
}
