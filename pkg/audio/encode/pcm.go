// ABOUTME: Raw PCM audio encoder
// ABOUTME: Writes interleaved 16-bit or 24-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio"
)

// PCMEncoder writes headerless interleaved PCM
type PCMEncoder struct {
	w        io.Writer
	bitDepth int
	buf      []byte
}

// NewPCM creates a new PCM encoder writing to w
func NewPCM(w io.Writer, format audio.Format) (*PCMEncoder, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format.Channels != 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 2)", format.Channels)
	}

	return &PCMEncoder{
		w:        w,
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts one stereo buffer to PCM bytes and writes it
func (e *PCMEncoder) Encode(left, right []float32) error {
	width := e.bitDepth / 8
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if cap(e.buf) < n*2*width {
		e.buf = make([]byte, n*2*width)
	}
	out := e.buf[:n*2*width]

	for i := 0; i < n; i++ {
		for c, v := range [2]float32{left[i], right[i]} {
			s := audio.FloatToSample(v, e.bitDepth)
			off := (i*2 + c) * width
			if width == 3 {
				// 24-bit PCM: 3 bytes per sample
				out[off] = byte(s)
				out[off+1] = byte(s >> 8)
				out[off+2] = byte(s >> 16)
			} else {
				binary.LittleEndian.PutUint16(out[off:], uint16(int16(s)))
			}
		}
	}

	if _, err := e.w.Write(out); err != nil {
		return fmt.Errorf("pcm write failed: %w", err)
	}
	return nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
