// ABOUTME: Tests for offline module export
// ABOUTME: Renders synthetic modules to WAV and PCM and checks the output
package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resonate-Protocol/modplay-go/pkg/tracker/trackertest"
	"github.com/go-audio/wav"
)

func writeInput(t *testing.T, dir string, o trackertest.Options) string {
	t.Helper()
	path := filepath.Join(dir, "song.mod")
	if err := os.WriteFile(path, trackertest.MOD(o), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExportWAV(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, trackertest.Options{Speed: 1, Rows: 4})
	out := filepath.Join(dir, "song.wav")

	res, err := Export(Options{Input: input, Output: out, SampleRate: 44100, BitDepth: 16, MaxDuration: time.Minute})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !res.Completed {
		t.Error("expected the song to end before max duration")
	}
	if res.Frames == 0 {
		t.Fatal("expected rendered frames")
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("invalid wav file")
	}
	if dec.SampleRate != 44100 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("header = %dHz %dch %dbit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if len(buf.Data) != res.Frames*2 {
		t.Errorf("expected %d samples, got %d", res.Frames*2, len(buf.Data))
	}

	loud := false
	for _, v := range buf.Data {
		if v != 0 {
			loud = true
			break
		}
	}
	if !loud {
		t.Error("expected non-silent output")
	}
}

func TestExportMaxDuration(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, trackertest.Options{Orders: 4})
	out := filepath.Join(dir, "song.pcm")

	res, err := Export(Options{Input: input, Output: out, Raw: true, SampleRate: 22050, BitDepth: 24, MaxDuration: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if res.Completed {
		t.Error("expected export to stop at max duration")
	}
	if res.Frames != 2205 {
		t.Errorf("expected 2205 frames, got %d", res.Frames)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(res.Frames*2*3) {
		t.Errorf("expected %d bytes, got %d", res.Frames*6, info.Size())
	}
}

func TestExportErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, trackertest.Options{})

	tests := []struct {
		name string
		opts Options
	}{
		{"bad bit depth", Options{Input: input, Output: filepath.Join(dir, "a.wav"), SampleRate: 44100, BitDepth: 12}},
		{"missing input", Options{Input: filepath.Join(dir, "none.mod"), Output: filepath.Join(dir, "b.wav"), SampleRate: 44100, BitDepth: 16}},
		{"unknown extension", Options{Input: filepath.Join(dir, "song.it"), Output: filepath.Join(dir, "c.wav"), SampleRate: 44100, BitDepth: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Export(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		input string
		raw   bool
		want  string
	}{
		{"songs/space.mod", false, "songs/space.wav"},
		{"songs/space.xm", true, "songs/space.pcm"},
		{"noext", false, "noext.wav"},
	}
	for _, tt := range tests {
		if got := defaultOutput(tt.input, tt.raw); got != tt.want {
			t.Errorf("defaultOutput(%q, %v) = %q, want %q", tt.input, tt.raw, got, tt.want)
		}
	}
}
