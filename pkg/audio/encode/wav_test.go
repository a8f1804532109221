// ABOUTME: Unit tests for the WAV encoder
// ABOUTME: Writes a file and reads it back with the go-audio decoder
package encode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio"
	"github.com/go-audio/wav"
)

func TestWAVEncoder(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		full     int
	}{
		{"16-bit", 16, audio.Max16Bit},
		{"24-bit", 24, audio.Max24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.wav")
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}

			enc, err := NewWAV(f, audio.Format{SampleRate: 44100, Channels: 2, BitDepth: tt.bitDepth})
			if err != nil {
				t.Fatalf("NewWAV error: %v", err)
			}
			left := []float32{1, 0, -1, 0.5}
			right := []float32{0, 1, 0, -0.5}
			for i := 0; i < 3; i++ {
				if err := enc.Encode(left, right); err != nil {
					t.Fatalf("Encode error: %v", err)
				}
			}
			if enc.Frames() != 12 {
				t.Errorf("Frames = %d, want 12", enc.Frames())
			}
			if err := enc.Close(); err != nil {
				t.Fatalf("Close error: %v", err)
			}
			f.Close()

			rf, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer rf.Close()

			dec := wav.NewDecoder(rf)
			if !dec.IsValidFile() {
				t.Fatal("decoder rejected file")
			}
			if dec.SampleRate != 44100 || dec.NumChans != 2 || int(dec.BitDepth) != tt.bitDepth {
				t.Errorf("header = %dHz %dch %dbit", dec.SampleRate, dec.NumChans, dec.BitDepth)
			}
			buf, err := dec.FullPCMBuffer()
			if err != nil {
				t.Fatalf("FullPCMBuffer error: %v", err)
			}
			if len(buf.Data) != 24 {
				t.Fatalf("expected 24 samples, got %d", len(buf.Data))
			}
			if buf.Data[0] != tt.full || buf.Data[3] != tt.full {
				t.Errorf("full scale samples = %d, %d, want %d", buf.Data[0], buf.Data[3], tt.full)
			}
			if buf.Data[4] != -tt.full {
				t.Errorf("negative full scale = %d, want %d", buf.Data[4], -tt.full)
			}
		})
	}
}

func TestNewWAVInvalidFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := NewWAV(f, audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 8}); err == nil {
		t.Error("expected error for 8-bit")
	}
	if _, err := NewWAV(f, audio.Format{SampleRate: 44100, Channels: 6, BitDepth: 16}); err == nil {
		t.Error("expected error for 6 channels")
	}
}
