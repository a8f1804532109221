// ABOUTME: Tone shaping stage applied after the signal processor
// ABOUTME: Fixed low-pass plus the switchable filter, both second order
package dsp

import (
	"math"
	"sync/atomic"
)

// Cutoff frequencies in Hz
const (
	FixedCutoff     = 22050
	Amiga500Cutoff  = 6000
	FilterOnCutoff  = 3275
	FilterOffCutoff = 28867
)

const butterworthQ = 1 / math.Sqrt2

// FilterCutoff returns the filter low-pass cutoff for the filter flag
func FilterCutoff(on bool) float64 {
	if on {
		return FilterOnCutoff
	}
	return FilterOffCutoff
}

// Biquad is a stereo second-order low-pass section
type Biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64
	bypass             bool
}

// SetLowPass computes coefficients for cutoff. Cutoffs at or above
// Nyquist bypass the section.
func (b *Biquad) SetLowPass(cutoff, sampleRate float64) {
	if sampleRate <= 0 || cutoff <= 0 || cutoff >= sampleRate/2 {
		b.bypass = true
		return
	}
	b.bypass = false

	w0 := 2 * math.Pi * cutoff / sampleRate
	cos := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	a0 := 1 + alpha

	b.b0 = (1 - cos) / 2 / a0
	b.b1 = (1 - cos) / a0
	b.b2 = b.b0
	b.a1 = -2 * cos / a0
	b.a2 = (1 - alpha) / a0
}

// Bypassed reports whether the section passes audio unchanged
func (b *Biquad) Bypassed() bool {
	return b.bypass
}

// Reset clears the filter history
func (b *Biquad) Reset() {
	b.x1, b.x2, b.y1, b.y2 = [2]float64{}, [2]float64{}, [2]float64{}, [2]float64{}
}

// Process filters both channels in place
func (b *Biquad) Process(left, right []float32) {
	if b.bypass {
		return
	}
	b.run(0, left)
	b.run(1, right)
}

func (b *Biquad) run(ch int, buf []float32) {
	x1, x2, y1, y2 := b.x1[ch], b.x2[ch], b.y1[ch], b.y2[ch]
	for i, s := range buf {
		x := float64(s)
		y := b.b0*x + b.b1*x1 + b.b2*x2 - b.a1*y1 - b.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		buf[i] = float32(y)
	}
	b.x1[ch], b.x2[ch], b.y1[ch], b.y2[ch] = x1, x2, y1, y2
}

// ToneStage chains the fixed low-pass and the filter low-pass.
// Process belongs to the render callback; SetFilterCutoff may be called
// from any goroutine and takes effect at the next Process call.
type ToneStage struct {
	sampleRate float64
	fixed      Biquad
	filter     Biquad

	want   atomic.Uint64
	cutoff float64
}

// NewToneStage creates a tone stage for sampleRate
func NewToneStage(sampleRate int, amiga500 bool, filterCutoff float64) *ToneStage {
	t := &ToneStage{sampleRate: float64(sampleRate)}
	fixed := float64(FixedCutoff)
	if amiga500 {
		fixed = Amiga500Cutoff
	}
	t.fixed.SetLowPass(fixed, t.sampleRate)
	t.cutoff = filterCutoff
	t.filter.SetLowPass(filterCutoff, t.sampleRate)
	t.want.Store(math.Float64bits(filterCutoff))
	return t
}

// SetFilterCutoff changes the filter low-pass cutoff
func (t *ToneStage) SetFilterCutoff(hz float64) {
	t.want.Store(math.Float64bits(hz))
}

// FilterCutoff returns the most recently requested filter cutoff
func (t *ToneStage) FilterCutoff() float64 {
	return math.Float64frombits(t.want.Load())
}

// Process runs both low-pass sections in place
func (t *ToneStage) Process(left, right []float32) {
	if want := math.Float64frombits(t.want.Load()); want != t.cutoff {
		t.cutoff = want
		t.filter.SetLowPass(want, t.sampleRate)
	}
	t.fixed.Process(left, right)
	t.filter.Process(left, right)
}
