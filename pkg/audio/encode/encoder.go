// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

// Encoder encodes planar float32 stereo buffers
type Encoder interface {
	// Encode appends one buffer of left/right samples to the output
	Encode(left, right []float32) error

	// Close flushes and finalizes the output
	Close() error
}
