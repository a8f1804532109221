// ABOUTME: Audio output interface definition
// ABOUTME: Pull-style devices that call a render function per buffer
package output

// RenderFunc fills left and right with one buffer of audio. It runs on the
// device's real-time goroutine and must not block.
type RenderFunc func(left, right []float32)

// Output represents an audio output device
type Output interface {
	// Open starts the device. render is invoked once per buffer until Close.
	Open(sampleRate int, render RenderFunc) error

	// SampleRate returns the rate the device actually runs at, 0 before Open
	SampleRate() int

	// BufferFrames returns the frames passed to each render call
	BufferFrames() int

	// Close stops rendering and releases the device
	Close() error
}

// Factory creates an Output
type Factory func() Output

// BufferFrames returns the buffer length used for a device sample rate
func BufferFrames(sampleRate int) int {
	if sampleRate <= 44100 {
		return 2048
	}
	return 4096
}
