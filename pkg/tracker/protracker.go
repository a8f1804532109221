// ABOUTME: Protracker MOD decoder
// ABOUTME: Parses MOD files with modplayer and maps them onto the shared song model
package tracker

import (
	"fmt"
	"strconv"

	"github.com/chriskillpack/modplayer"
)

const (
	modHeaderSize  = 1084
	modRows        = 64

	// PAL Amiga clock / 2 divided by the C-2 period (428)
	modBaseRate = 3546894.6 / 428
)

// Periods for C-1..B-3 at finetune 0. Index 12 (C-2) maps to MiddleC.
var modPeriods = [36]int{
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

// Protracker decodes MOD files
type Protracker struct {
	engine
}

// NewProtracker creates an empty MOD decoder
func NewProtracker() *Protracker {
	return &Protracker{engine: newEngine(FormatProtracker)}
}

// Parse decodes a MOD file
func (p *Protracker) Parse(data []byte) error {
	song, err := parseProtracker(data)
	if err != nil {
		return err
	}
	p.load(song)
	return nil
}

func parseProtracker(data []byte) (song *Song, err error) {
	if len(data) < modHeaderSize {
		return nil, fmt.Errorf("%w: mod header truncated (%d bytes)", ErrParse, len(data))
	}
	sig := string(data[1080:1084])
	channels := modChannels(sig)
	if channels == 0 {
		return nil, fmt.Errorf("%w: unrecognized mod signature %q", ErrParse, sig)
	}
	if songLen := int(data[950]); songLen == 0 || songLen > 128 {
		return nil, fmt.Errorf("%w: invalid song length %d", ErrParse, songLen)
	}
	defer func() {
		if r := recover(); r != nil {
			song, err = nil, fmt.Errorf("%w: mod: %v", ErrParse, r)
		}
	}()

	raw, err := modplayer.NewSongFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if raw.Channels != channels {
		return nil, fmt.Errorf("%w: mod signature %q has %d channels, library read %d", ErrParse, sig, channels, raw.Channels)
	}
	patternSize := modRows * channels * 4
	if need := modHeaderSize + len(raw.Patterns)*patternSize; need > len(data) {
		return nil, fmt.Errorf("%w: %d patterns do not fit in %d bytes", ErrParse, len(raw.Patterns), len(data))
	}
	return modSong(raw, sig, int(data[951])), nil
}

// modSong converts a parsed MOD file. The library keeps patterns as raw
// 4-byte cells.
func modSong(raw *modplayer.Song, sig string, restart int) *Song {
	song := &Song{
		Title:     cleanName([]byte(raw.Title)),
		Signature: sig,
		Channels:  raw.Channels,
		Restart:   restart,
		Speed:     defaultSpeed,
		BPM:       defaultBPM,
	}
	for _, o := range raw.Orders {
		song.Orders = append(song.Orders, int(o))
	}

	for i, rs := range raw.Samples {
		song.Samples = append(song.Samples, modSample(rs))
		song.Instruments = append(song.Instruments, singleSampleInstrument(song.Samples[i].Name, i))
	}

	for _, cells := range raw.Patterns {
		pat := newPattern(modRows, song.Channels)
		for j := range pat.Cells {
			if off := j * 4; off+4 <= len(cells) {
				pat.Cells[j] = modCell(cells[off : off+4])
			}
		}
		song.Patterns = append(song.Patterns, pat)
	}

	song.Panning = make([]float32, song.Channels)
	for ch := range song.Panning {
		// Amiga LRRL
		if ch%4 == 1 || ch%4 == 2 {
			song.Panning[ch] = 1
		}
	}
	return song
}

// modSample converts library sample data. FineTune arrives biased by 8.
func modSample(rs modplayer.Sample) Sample {
	n := rs.Length
	if n > len(rs.Data) {
		n = len(rs.Data)
	}
	if n < 0 {
		n = 0
	}
	s := Sample{
		Name:     cleanName([]byte(rs.Name)),
		Volume:   clampVolume(rs.Volume),
		BaseRate: modBaseRate,
		FineTune: float64(rs.FineTune-8) / 8,
		Panning:  -1,
		Data:     make([]float32, n),
	}
	for j := 0; j < n; j++ {
		s.Data[j] = float32(rs.Data[j]) / 128
	}
	if rs.LoopLen > 2 && rs.LoopStart >= 0 && rs.LoopStart < n {
		s.LoopStart = rs.LoopStart
		s.LoopLen = rs.LoopLen
		if s.LoopStart+s.LoopLen > n {
			s.LoopLen = n - s.LoopStart
		}
	}
	return s
}

// modChannels returns the channel count for a MOD signature, 0 if unknown
func modChannels(sig string) int {
	switch sig {
	case "M.K.", "M!K!", "M&K!", "FLT4", "4CHN", "N.T.":
		return 4
	case "FLT8", "OCTA", "OKTA", "CD81":
		return 8
	}
	if sig[1:] == "CHN" {
		if n, err := strconv.Atoi(sig[:1]); err == nil && n > 0 {
			return n
		}
	}
	if sig[2:] == "CH" || sig[2:] == "CN" {
		if n, err := strconv.Atoi(sig[:2]); err == nil && n > 0 && n <= MaxChannels {
			return n
		}
	}
	return 0
}

func modCell(b []byte) Cell {
	c := emptyCell
	if len(b) < 4 {
		return c
	}
	c.Instrument = (b[0] & 0xF0) | (b[2] >> 4)
	if period := int(b[0]&0x0F)<<8 | int(b[1]); period > 0 {
		c.Note = uint8(periodToNote(period))
	}
	c.Effect, c.Param = modEffect(b[2]&0x0F, b[3])
	return c
}

func periodToNote(period int) int {
	best, bestDiff := 0, -1
	for i, p := range modPeriods {
		d := p - period
		if d < 0 {
			d = -d
		}
		if bestDiff < 0 || d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return MiddleC - 12 + best
}

// modEffect converts a MOD/XM effect command to an Effect
func modEffect(cmd, param uint8) (Effect, uint8) {
	switch cmd {
	case 0x8:
		return EffectPanning, param
	case 0xA:
		if param == 0 {
			return EffectNone, 0
		}
		return EffectVolumeSlide, param
	case 0xB:
		return EffectJump, param
	case 0xC:
		return EffectVolume, param
	case 0xD:
		return EffectBreak, (param>>4)*10 + param&0x0F
	case 0xE:
		switch param >> 4 {
		case 0xA:
			return EffectFineVolumeSlide, (param & 0x0F) << 4
		case 0xB:
			return EffectFineVolumeSlide, param & 0x0F
		case 0xC:
			return EffectNoteCut, param & 0x0F
		}
	case 0xF:
		switch {
		case param == 0:
			return EffectNone, 0
		case param < 32:
			return EffectSpeed, param
		default:
			return EffectTempo, param
		}
	}
	return EffectNone, 0
}
