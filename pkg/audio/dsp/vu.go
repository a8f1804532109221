// ABOUTME: Per-channel VU meter smoothing
// ABOUTME: Blends the latest raw peak into a persistent level per channel
package dsp

const (
	vuKeep = 0.25
	vuTake = 0.75
)

// VUTracker holds smoothed levels, one per channel.
// Not safe for concurrent use; it belongs to the render callback.
type VUTracker struct {
	levels []float32
}

// NewVUTracker allocates levels for channels channels
func NewVUTracker(channels int) *VUTracker {
	if channels < 0 {
		channels = 0
	}
	return &VUTracker{levels: make([]float32, channels)}
}

// Update smooths raw into the levels and then zeroes raw so the next
// call only sees the most recent buffer.
func (v *VUTracker) Update(raw []float32) {
	for i := range v.levels {
		var r float32
		if i < len(raw) {
			r = raw[i]
		}
		v.levels[i] = v.levels[i]*vuKeep + r*vuTake
	}
	for i := range raw {
		raw[i] = 0
	}
}

// Levels returns the live level slice
func (v *VUTracker) Levels() []float32 {
	return v.levels
}

// Channels returns the number of tracked channels
func (v *VUTracker) Channels() int {
	return len(v.levels)
}

// CopyTo copies the levels into dst and returns the count copied
func (v *VUTracker) CopyTo(dst []float32) int {
	return copy(dst, v.levels)
}
