// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, buffers and float/int sample conversions
package audio

import "fmt"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	Max16Bit = 32767
	Min16Bit = -32768
)

// Format describes a PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate checks that the format can be written as integer PCM
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels < 1 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if f.BitDepth != 16 && f.BitDepth != 24 {
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
	return nil
}

// Buffer holds interleaved integer PCM at Format.BitDepth
type Buffer struct {
	Samples []int32
	Format  Format
}

// Frames returns the number of complete frames in the buffer
func (b *Buffer) Frames() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// FloatToSample converts a [-1, 1] float to an integer sample of bitDepth
// bits, clamping out-of-range input.
func FloatToSample(v float32, bitDepth int) int32 {
	hi, lo := int64(Max16Bit), int64(Min16Bit)
	if bitDepth == 24 {
		hi, lo = Max24Bit, Min24Bit
	}
	s := int64(float64(v) * float64(hi))
	if s > hi {
		s = hi
	} else if s < lo {
		s = lo
	}
	return int32(s)
}

// Interleave writes planar left/right into dst as L R L R and returns dst
// resliced to the written length. dst is grown only if too small.
func Interleave(dst []float32, left, right []float32) []float32 {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if cap(dst) < n*2 {
		dst = make([]float32, n*2)
	}
	dst = dst[:n*2]
	for i := 0; i < n; i++ {
		dst[i*2] = left[i]
		dst[i*2+1] = right[i]
	}
	return dst
}

// SampleToInt16 converts a 24-bit left-justified sample to int16
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}
