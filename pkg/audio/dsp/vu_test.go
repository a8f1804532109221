// ABOUTME: Tests for VU smoothing
// ABOUTME: Checks first-call level, convergence and raw reset
package dsp

import "testing"

func TestVUTrackerFirstUpdate(t *testing.T) {
	vu := NewVUTracker(2)
	raw := []float32{0.8, 0.4}
	vu.Update(raw)

	levels := vu.Levels()
	if !near(levels[0], 0.6, 1e-6) || !near(levels[1], 0.3, 1e-6) {
		t.Errorf("levels = %v, want [0.6 0.3]", levels)
	}
	if raw[0] != 0 || raw[1] != 0 {
		t.Errorf("raw not reset: %v", raw)
	}
}

func TestVUTrackerConverges(t *testing.T) {
	vu := NewVUTracker(1)
	const v = 0.5
	prev := float32(0)
	for k := 0; k < 30; k++ {
		vu.Update([]float32{v})
		got := vu.Levels()[0]
		if got < prev {
			t.Fatalf("level decreased at step %d: %v < %v", k, got, prev)
		}
		prev = got
	}
	if !near(prev, v, 1e-6) {
		t.Errorf("level after 30 updates = %v, want %v", prev, v)
	}
}

func TestVUTrackerDecays(t *testing.T) {
	vu := NewVUTracker(1)
	vu.Update([]float32{1})
	vu.Update([]float32{0})
	if got := vu.Levels()[0]; !near(got, 0.1875, 1e-6) {
		t.Errorf("level = %v, want 0.1875", got)
	}
}

func TestVUTrackerShortRaw(t *testing.T) {
	vu := NewVUTracker(3)
	vu.Update([]float32{1})
	if vu.Channels() != 3 {
		t.Fatalf("Channels = %d", vu.Channels())
	}
	dst := make([]float32, 4)
	if n := vu.CopyTo(dst); n != 3 {
		t.Errorf("CopyTo = %d, want 3", n)
	}
	if dst[0] != 0.75 || dst[1] != 0 || dst[2] != 0 {
		t.Errorf("levels = %v", dst)
	}
}
