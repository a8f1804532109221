// ABOUTME: Offline output that renders on demand
// ABOUTME: Used for file export and tests, the caller pumps each buffer
package output

import (
	"fmt"
	"sync"
)

// Offline is a device without a clock. Each Render call runs the render
// function once, standing in for one hardware buffer period.
type Offline struct {
	mu     sync.Mutex
	render RenderFunc
	rate   int
	frames int
	left   []float32
	right  []float32
	closed bool
}

// NewOffline creates an offline device. frames of 0 selects the
// BufferFrames policy for the sample rate given to Open.
func NewOffline(frames int) *Offline {
	return &Offline{frames: frames}
}

// Open records the render function and allocates the buffers
func (o *Offline) Open(sampleRate int, render RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.render != nil {
		return fmt.Errorf("output already open")
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if o.frames <= 0 {
		o.frames = BufferFrames(sampleRate)
	}
	o.rate = sampleRate
	o.render = render
	o.left = make([]float32, o.frames)
	o.right = make([]float32, o.frames)
	o.closed = false
	return nil
}

// Render runs one buffer and returns it. The slices are reused by the next
// call. ok is false when the device is not open.
func (o *Offline) Render() (left, right []float32, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.render == nil || o.closed {
		return nil, nil, false
	}
	o.render(o.left, o.right)
	return o.left, o.right, true
}

// IsOpen reports whether Open succeeded and Close has not been called
func (o *Offline) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.render != nil && !o.closed
}

// SampleRate returns the rate given to Open
func (o *Offline) SampleRate() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

// BufferFrames returns the frames per Render call
func (o *Offline) BufferFrames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frames
}

// Close stops rendering
func (o *Offline) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.render = nil
	return nil
}
