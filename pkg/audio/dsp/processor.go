// ABOUTME: Stereo separation, gain and soft clip stage
// ABOUTME: Runs in the render callback, mode changes are atomic
package dsp

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

const (
	// MixScale divides the raw decoder output before clipping
	MixScale = 2.0

	// ClipThreshold is the soft clip asymptote
	ClipThreshold = 0.975

	narrowDirect = 0.65
	narrowCross  = 0.35
)

// Separation selects how the stereo image is adjusted
type Separation int32

const (
	SeparationNarrow Separation = iota
	SeparationOff
	SeparationMono
)

func (s Separation) String() string {
	switch s {
	case SeparationOff:
		return "off"
	case SeparationNarrow:
		return "narrow"
	case SeparationMono:
		return "mono"
	}
	return fmt.Sprintf("separation(%d)", int32(s))
}

// ParseSeparation maps "off", "narrow" or "mono" to a Separation
func ParseSeparation(s string) (Separation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return SeparationOff, nil
	case "", "narrow":
		return SeparationNarrow, nil
	case "mono":
		return SeparationMono, nil
	}
	return SeparationNarrow, fmt.Errorf("invalid separation mode %q", s)
}

// Apply returns the separated pair for one frame
func (s Separation) Apply(l, r float32) (float32, float32) {
	switch s {
	case SeparationNarrow:
		return narrowDirect*l + narrowCross*r, narrowDirect*r + narrowCross*l
	case SeparationMono:
		m := 0.5*l + 0.5*r
		return m, m
	}
	return l, r
}

// SoftClip saturates x smoothly toward ±ClipThreshold
func SoftClip(x float32) float32 {
	v := float64(x)
	return float32(0.5 * (math.Abs(v+ClipThreshold) - math.Abs(v-ClipThreshold)))
}

// Processor applies separation, gain and soft clip in place
type Processor struct {
	mode atomic.Int32
}

// NewProcessor creates a processor with the given separation mode
func NewProcessor(mode Separation) *Processor {
	p := &Processor{}
	p.mode.Store(int32(mode))
	return p
}

// SetSeparation changes the separation mode, safe from any goroutine
func (p *Processor) SetSeparation(mode Separation) {
	p.mode.Store(int32(mode))
}

// Separation returns the current mode
func (p *Processor) Separation() Separation {
	return Separation(p.mode.Load())
}

// Process runs separation, gain and soft clip over both channels
func (p *Processor) Process(left, right []float32) {
	mode := p.Separation()
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		l, r := mode.Apply(left[i], right[i])
		left[i] = SoftClip(l / MixScale)
		right[i] = SoftClip(r / MixScale)
	}
}
