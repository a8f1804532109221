// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the pull-style Output interface with oto and offline devices
// Package output provides audio devices that pull rendered audio.
//
// A device owns the real-time clock: after Open it calls the RenderFunc once
// per buffer of BufferFrames frames, with planar float32 stereo buffers.
//
//   - Oto: the system audio device via ebitengine/oto
//   - Offline: no clock, the caller pumps Render for exports and tests
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(44100, func(left, right []float32) {
//	    decoder.Mix([2][]float32{left, right}, len(left))
//	})
//	defer out.Close()
package output
