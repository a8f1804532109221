// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the PCM types shared by the output and encode
// packages.
//
// Rendered module audio is planar float32 in [-1, 1]. This package converts
// it to the integer layouts used by WAV files:
//   - Format: sample rate, channel count and bit depth
//   - Buffer: interleaved int32 samples at a Format
//   - FloatToSample, Interleave and 16/24-bit conversions
//
// Example:
//
//	format := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
//	frame := []int32{
//	    audio.FloatToSample(left[i], format.BitDepth),
//	    audio.FloatToSample(right[i], format.BitDepth),
//	}
package audio
