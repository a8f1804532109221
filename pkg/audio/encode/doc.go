// ABOUTME: Audio encoder package for writing rendered audio to files
// ABOUTME: Provides Encoder interface and implementations for WAV and raw PCM
// Package encode writes rendered stereo buffers to files.
//
// Supports: WAV (via go-audio/wav) and headerless PCM, each at 16 or 24 bits.
//
// All encoders accept planar float32 buffers in [-1, 1] as produced by the
// render loop.
//
// Example:
//
//	f, _ := os.Create("song.wav")
//	enc, err := encode.NewWAV(f, audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16})
//	err = enc.Encode(left, right)
//	err = enc.Close()
package encode
