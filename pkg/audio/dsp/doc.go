// ABOUTME: Real-time signal processing for rendered module audio
// ABOUTME: Stereo separation, soft clipping, VU smoothing and tone shaping
// Package dsp holds the allocation-free processing stages applied to each
// rendered buffer.
//
// All stages operate in place on planar stereo buffers:
//   - Processor: stereo separation, fixed gain and soft clip, in that order
//   - VUTracker: exponential smoothing of per-channel peak levels
//   - ToneStage: fixed low-pass followed by the switchable "LED" filter
//
// Example:
//
//	proc := dsp.NewProcessor(dsp.SeparationNarrow)
//	tone := dsp.NewToneStage(44100, false, dsp.FilterCutoff(false))
//
//	proc.Process(left, right)
//	tone.Process(left, right)
package dsp
