// ABOUTME: Offline rendering of a module to a WAV or raw PCM file
// ABOUTME: Pumps the player through an offline device into an encoder
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/output"
	"github.com/Resonate-Protocol/modplay-go/pkg/modplay"
)

// Options controls one export
type Options struct {
	Input       string
	Output      string
	Raw         bool // headerless PCM instead of WAV
	SampleRate  int
	BitDepth    int
	Separation  dsp.Separation
	Filter      bool
	Amiga500    bool
	MaxDuration time.Duration
}

// Result summarizes a finished export
type Result struct {
	Frames    int
	Completed bool // the song reached its end before MaxDuration
}

// Duration returns the rendered length
func (r Result) Duration(sampleRate int) time.Duration {
	return time.Duration(r.Frames) * time.Second / time.Duration(sampleRate)
}

// Export renders opts.Input once through to opts.Output
func Export(opts Options) (Result, error) {
	format := audio.Format{SampleRate: opts.SampleRate, Channels: 2, BitDepth: opts.BitDepth}
	if err := format.Validate(); err != nil {
		return Result{}, err
	}

	device := output.NewOffline(0)
	player, err := modplay.NewPlayer(modplay.Config{
		SampleRate: opts.SampleRate,
		Separation: opts.Separation,
		NoLoop:     true,
		Filter:     opts.Filter,
		Amiga500:   opts.Amiga500,
		NewOutput:  func() output.Output { return device },
	})
	if err != nil {
		return Result{}, err
	}
	defer player.Close()

	if err := player.LoadFile(opts.Input); err != nil {
		return Result{}, err
	}
	if err := player.Play(); err != nil {
		return Result{}, err
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	enc, err := newEncoder(f, format, opts.Raw)
	if err != nil {
		return Result{}, err
	}

	maxFrames := int(opts.MaxDuration.Seconds() * float64(opts.SampleRate))
	var res Result
	for maxFrames <= 0 || res.Frames < maxFrames {
		left, right, ok := device.Render()
		if !ok {
			break
		}
		n := len(left)
		if maxFrames > 0 && res.Frames+n > maxFrames {
			n = maxFrames - res.Frames
		}
		if err := enc.Encode(left[:n], right[:n]); err != nil {
			enc.Close()
			return res, fmt.Errorf("encode failed: %w", err)
		}
		res.Frames += n

		if player.State() == modplay.StateStopped {
			res.Completed = true
			break
		}
	}

	if err := enc.Close(); err != nil {
		return res, fmt.Errorf("failed to finish output: %w", err)
	}
	log.Printf("Rendered %d frames (%s) to %s", res.Frames, res.Duration(opts.SampleRate), opts.Output)
	return res, nil
}

func newEncoder(f *os.File, format audio.Format, raw bool) (encode.Encoder, error) {
	if raw {
		enc, err := encode.NewPCM(f, format)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
	enc, err := encode.NewWAV(f, format)
	if err != nil {
		return nil, err
	}
	return enc, nil
}
