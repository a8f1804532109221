// ABOUTME: Fasttracker 2 XM decoder
// ABOUTME: Parses XM files with xmfile and maps them onto the shared song model
package tracker

import (
	"fmt"

	"github.com/quasilyte/xm/xmfile"
)

const (
	xmMagic      = "Extended Module: "
	xmBaseRate   = 8363
	xmNoteKeyOff = 97
)

// Fasttracker decodes XM files
type Fasttracker struct {
	engine
}

// NewFasttracker creates an empty XM decoder
func NewFasttracker() *Fasttracker {
	return &Fasttracker{engine: newEngine(FormatFasttracker)}
}

// Parse decodes an XM file
func (f *Fasttracker) Parse(data []byte) error {
	song, err := parseFasttracker(data)
	if err != nil {
		return err
	}
	f.load(song)
	return nil
}

func parseFasttracker(data []byte) (song *Song, err error) {
	if len(data) < 80 || string(data[:len(xmMagic)]) != xmMagic {
		return nil, fmt.Errorf("%w: missing xm header", ErrParse)
	}
	defer func() {
		if r := recover(); r != nil {
			song, err = nil, fmt.Errorf("%w: xm: %v", ErrParse, r)
		}
	}()

	parser := xmfile.NewParser(xmfile.ParserConfig{})
	m, err := parser.ParseFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return xmSong(m, cleanName(data[38:58]))
}

// xmSong converts a parsed XM module. The tracker name is the signature.
func xmSong(m *xmfile.Module, tracker string) (*Song, error) {
	song := &Song{
		Title:     m.Name,
		Signature: tracker,
		Channels:  int(m.NumChannels),
		Restart:   int(m.RestartPosition),
		Speed:     int(m.DefaultTempo),
		BPM:       int(m.DefaultBPM),
	}
	if song.Signature == "" {
		song.Signature = "Extended Module"
	}

	switch {
	case song.Channels < 1 || song.Channels > MaxChannels:
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrParse, song.Channels)
	case len(m.PatternOrder) < 1 || len(m.PatternOrder) > 256:
		return nil, fmt.Errorf("%w: invalid song length %d", ErrParse, len(m.PatternOrder))
	}
	for _, o := range m.PatternOrder {
		song.Orders = append(song.Orders, int(o))
	}
	song.Panning = make([]float32, song.Channels)
	for ch := range song.Panning {
		song.Panning[ch] = 0.5
	}

	for i := range m.Patterns {
		song.Patterns = append(song.Patterns, xmPattern(&m.Patterns[i], song.Channels))
	}
	for i := range m.Instruments {
		xmInstrument(&m.Instruments[i], song)
	}
	return song, nil
}

func xmPattern(raw *xmfile.Pattern, channels int) Pattern {
	rows := len(raw.Rows)
	if rows == 0 || rows > 256 {
		rows = 64
	}
	pat := newPattern(rows, channels)
	for row, r := range raw.Rows {
		if row >= rows {
			break
		}
		for ch, n := range r.Notes {
			if ch >= channels {
				break
			}
			pat.Cells[row*channels+ch] = xmCell(uint8(n.Note), uint8(n.Instrument), uint8(n.Volume), uint8(n.EffectType), uint8(n.EffectParameter))
		}
	}
	return pat
}

func xmCell(note, ins, vol, eff, param uint8) Cell {
	c := emptyCell
	switch {
	case note == xmNoteKeyOff:
		c.Note = NoteOff
	case note >= 1 && note <= 96:
		c.Note = note - 1
	}
	c.Instrument = ins
	if vol >= 0x10 && vol <= 0x50 {
		c.Volume = vol - 0x10
	}
	if eff <= 0xF {
		c.Effect, c.Param = modEffect(eff, param)
	}
	return c
}

// xmInstrument appends the instrument and its samples. Every note plays the
// first sample of the instrument.
func xmInstrument(raw *xmfile.Instrument, song *Song) {
	inst := Instrument{Name: raw.Name}
	for k := range inst.Keymap {
		inst.Keymap[k] = -1
	}
	base := len(song.Samples)
	for i := range raw.Samples {
		song.Samples = append(song.Samples, xmSample(&raw.Samples[i]))
	}
	if len(raw.Samples) > 0 {
		for k := range inst.Keymap {
			inst.Keymap[k] = base
		}
	}
	song.Instruments = append(song.Instruments, inst)
}

// xmSample decodes 8-bit delta sample data
func xmSample(raw *xmfile.InstrumentSample) Sample {
	smp := Sample{
		Name:      raw.Name,
		BaseRate:  xmBaseRate,
		Volume:    clampVolume(int(raw.Volume)),
		FineTune:  float64(int8(raw.Finetune)) / 128,
		Panning:   float32(uint8(raw.Panning)) / 255,
		Transpose: int(int8(raw.RelativeNoteNumber)),
		Data:      make([]float32, len(raw.Data)),
	}
	var acc int8
	for i, d := range raw.Data {
		acc += int8(d)
		smp.Data[i] = float32(acc) / 128
	}

	loopStart, loopLen := int(raw.LoopStart), int(raw.LoopLength)
	if raw.LoopType != xmfile.SampleLoopNone && loopLen > 0 && loopStart >= 0 && loopStart < len(smp.Data) {
		if loopStart+loopLen > len(smp.Data) {
			loopLen = len(smp.Data) - loopStart
		}
		smp.LoopStart = loopStart
		smp.LoopLen = loopLen
	}
	return smp
}
