// ABOUTME: Tracker module decoding package
// ABOUTME: Provides the Decoder contract and MOD, S3M and XM decoders
// Package tracker decodes tracker module files and renders them to raw
// stereo audio on demand.
//
// Supported formats:
//   - Protracker (.mod: M.K., xCHN and xxCH), read with chriskillpack/modplayer
//   - ScreamTracker 3 (.s3m)
//   - Fasttracker 2 (.xm), read with quasilyte/xm/xmfile
//
// Parsed files are converted into one Song model so a single engine mixes
// every format.
//
// All decoders implement the Decoder interface. A decoder owns its song and
// a Transport holding the mutable playback fields (position, row, speed,
// bpm, paused/playing/end-of-song flags, per-channel raw VU levels).
//
// Only a small effect subset is interpreted: set speed, set tempo, position
// jump, pattern break, set volume, volume slides, set panning and note cut.
//
// Example:
//
//	dec, err := tracker.NewForTag("mod")
//	if err := dec.Parse(data); err != nil {
//	    return err
//	}
//	dec.SetSampleRate(44100)
//	dec.Initialize()
//	dec.Transport().Playing = true
//	dec.Mix([2][]float32{left, right}, len(left))
package tracker
