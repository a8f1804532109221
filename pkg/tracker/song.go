// ABOUTME: Format-independent song model
// ABOUTME: Orders, patterns, instruments and samples shared by all decoders
package tracker

import "strings"

// Note values. Playable notes are 0..NumNotes-1 with C-4 = 48.
const (
	NumNotes = 120
	MiddleC  = 48

	NoteNone = 0xFF
	NoteOff  = 0xFE
	NoteCut  = 0xFD

	// VolumeNone marks an empty volume column
	VolumeNone = 0xFF
)

// Effect is a format-independent effect command
type Effect uint8

const (
	EffectNone Effect = iota
	EffectSpeed
	EffectTempo
	EffectJump
	EffectBreak
	EffectVolume
	EffectVolumeSlide     // param hi nibble up, lo nibble down, every tick but the first
	EffectFineVolumeSlide // param hi nibble up, lo nibble down, first tick only
	EffectPanning         // 0..255
	EffectNoteCut         // cut on tick param
)

// Cell is one channel of one row
type Cell struct {
	Note       uint8
	Instrument uint8 // 1-based, 0 = none
	Volume     uint8 // 0..64 or VolumeNone
	Effect     Effect
	Param      uint8
}

var emptyCell = Cell{Note: NoteNone, Volume: VolumeNone}

// Pattern is a grid of rows x song channels
type Pattern struct {
	Rows  int
	Cells []Cell
}

func newPattern(rows, channels int) Pattern {
	p := Pattern{Rows: rows, Cells: make([]Cell, rows*channels)}
	for i := range p.Cells {
		p.Cells[i] = emptyCell
	}
	return p
}

// Sample is a mono PCM waveform normalized to [-1, 1]
type Sample struct {
	Name      string
	Data      []float32
	LoopStart int
	LoopLen   int // 0 = no loop
	Volume    int // 0..64

	// BaseRate is the playback rate in Hz for MiddleC
	BaseRate  float64
	Transpose int
	FineTune  float64 // semitones
	Panning   float32 // 0..1, negative = channel default
}

// Instrument maps notes to samples
type Instrument struct {
	Name   string
	Keymap [NumNotes]int // index into Song.Samples, -1 = none
}

func singleSampleInstrument(name string, sample int) Instrument {
	inst := Instrument{Name: name}
	for i := range inst.Keymap {
		inst.Keymap[i] = sample
	}
	return inst
}

// Song is a decoded module
type Song struct {
	Title       string
	Signature   string
	Channels    int
	Orders      []int
	Restart     int
	Patterns    []Pattern
	Instruments []Instrument
	Samples     []Sample
	Speed       int
	BPM         int
	Panning     []float32 // default pan per channel, 0..1
}

// cell returns the cell at row/channel of the pattern played at order pos
func (s *Song) cell(pos, row, ch int) Cell {
	if pos < 0 || pos >= len(s.Orders) {
		return emptyCell
	}
	p := s.Orders[pos]
	if p < 0 || p >= len(s.Patterns) {
		return emptyCell
	}
	pat := &s.Patterns[p]
	i := row*s.Channels + ch
	if row >= pat.Rows || i >= len(pat.Cells) {
		return emptyCell
	}
	return pat.Cells[i]
}

// rows returns the row count of the pattern played at order pos
func (s *Song) rows(pos int) int {
	if pos < 0 || pos >= len(s.Orders) {
		return 64
	}
	p := s.Orders[pos]
	if p < 0 || p >= len(s.Patterns) || s.Patterns[p].Rows == 0 {
		return 64
	}
	return s.Patterns[p].Rows
}

// cleanName trims padding and control bytes from fixed-width name fields
func cleanName(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			c = ' '
		}
		out = append(out, c)
	}
	return strings.TrimRight(string(out), " ")
}
