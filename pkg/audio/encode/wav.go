// ABOUTME: WAV file encoder
// ABOUTME: Wraps go-audio/wav to write rendered stereo buffers as RIFF PCM
package encode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WAVEncoder writes a WAV file. The header is finalized on Close, so the
// destination must be seekable.
type WAVEncoder struct {
	enc      *wav.Encoder
	bitDepth int
	buf      *goaudio.IntBuffer
	frames   int
}

// NewWAV creates a WAV encoder writing to w
func NewWAV(w io.WriteSeeker, format audio.Format) (*WAVEncoder, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format.Channels != 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 2)", format.Channels)
	}

	return &WAVEncoder{
		enc:      wav.NewEncoder(w, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		bitDepth: format.BitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

// Encode appends one stereo buffer
func (e *WAVEncoder) Encode(left, right []float32) error {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if cap(e.buf.Data) < n*2 {
		e.buf.Data = make([]int, n*2)
	}
	e.buf.Data = e.buf.Data[:n*2]
	for i := 0; i < n; i++ {
		e.buf.Data[i*2] = int(audio.FloatToSample(left[i], e.bitDepth))
		e.buf.Data[i*2+1] = int(audio.FloatToSample(right[i], e.bitDepth))
	}

	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	e.frames += n
	return nil
}

// Frames returns the number of frames written so far
func (e *WAVEncoder) Frames() int {
	return e.frames
}

// Close writes the final header sizes
func (e *WAVEncoder) Close() error {
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}
