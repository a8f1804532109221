// ABOUTME: ScreamTracker 3 S3M decoder
// ABOUTME: Parses S3M headers, packed patterns and PCM samples
package tracker

import "fmt"

const (
	s3mHeaderSize = 0x60
	s3mRows       = 64
	s3mBaseRate   = 8363
)

// ScreamTracker decodes S3M files
type ScreamTracker struct {
	engine
}

// NewScreamTracker creates an empty S3M decoder
func NewScreamTracker() *ScreamTracker {
	return &ScreamTracker{engine: newEngine(FormatScreamTracker)}
}

// Parse decodes an S3M file
func (s *ScreamTracker) Parse(data []byte) error {
	song, err := parseScreamTracker(data)
	if err != nil {
		return err
	}
	s.load(song)
	return nil
}

func parseScreamTracker(data []byte) (*Song, error) {
	if len(data) < s3mHeaderSize {
		return nil, fmt.Errorf("%w: s3m header truncated (%d bytes)", ErrParse, len(data))
	}
	if sig := string(data[0x2C:0x30]); sig != "SCRM" {
		return nil, fmt.Errorf("%w: missing SCRM signature", ErrParse)
	}
	if data[0x1D] != 16 {
		return nil, fmt.Errorf("%w: unsupported s3m file type %d", ErrParse, data[0x1D])
	}

	r := newReader(data)
	song := &Song{Title: r.name(28), Signature: "SCRM"}

	r.seek(0x20)
	ordNum := int(r.u16le())
	insNum := int(r.u16le())
	patNum := int(r.u16le())
	r.seek(0x2A)
	unsigned := r.u16le() != 1
	r.seek(0x31)
	song.Speed = int(r.u8())
	song.BPM = int(r.u8())
	stereo := r.u8()&0x80 != 0
	r.seek(0x35)
	hasPanTable := r.u8() == 252

	r.seek(0x40)
	settings := r.bytes(32)
	if r.err != nil {
		return nil, r.err
	}
	for ch, cs := range settings {
		if cs < 16 {
			song.Channels = ch + 1
		}
	}
	if song.Channels == 0 {
		return nil, fmt.Errorf("%w: no enabled channels", ErrParse)
	}
	song.Panning = make([]float32, song.Channels)
	for ch := range song.Panning {
		switch {
		case !stereo:
			song.Panning[ch] = 0.5
		case settings[ch] < 8:
			song.Panning[ch] = 0.2
		default:
			song.Panning[ch] = 0.8
		}
	}

	r.seek(s3mHeaderSize)
	for _, o := range r.bytes(ordNum) {
		if o == 255 {
			break
		}
		if o == 254 {
			continue
		}
		song.Orders = append(song.Orders, int(o))
	}
	insPtrs := make([]int, insNum)
	for i := range insPtrs {
		insPtrs[i] = int(r.u16le()) * 16
	}
	patPtrs := make([]int, patNum)
	for i := range patPtrs {
		patPtrs[i] = int(r.u16le()) * 16
	}
	if hasPanTable && stereo {
		pans := r.bytes(32)
		for ch := 0; ch < song.Channels && ch < len(pans); ch++ {
			if pans[ch]&0x20 != 0 {
				song.Panning[ch] = float32(pans[ch]&0x0F) / 15
			}
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(song.Orders) == 0 {
		return nil, fmt.Errorf("%w: empty order list", ErrParse)
	}

	for i, ptr := range insPtrs {
		smp, err := s3mSample(r, ptr, unsigned)
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i+1, err)
		}
		song.Samples = append(song.Samples, smp)
		song.Instruments = append(song.Instruments, singleSampleInstrument(smp.Name, i))
	}

	for i, ptr := range patPtrs {
		pat, err := s3mPattern(r, ptr, song.Channels)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		song.Patterns = append(song.Patterns, pat)
	}

	return song, nil
}

func s3mSample(r *reader, off int, unsigned bool) (Sample, error) {
	smp := Sample{BaseRate: s3mBaseRate, Panning: -1}
	if off == 0 {
		return smp, nil
	}
	r.seek(off)
	kind := r.u8()
	r.seek(off + 0x30)
	smp.Name = r.name(28)
	if r.err != nil {
		return smp, r.err
	}
	if kind != 1 {
		return smp, nil
	}

	r.seek(off + 0x0D)
	memSeg := int(r.u8())<<16 | int(r.u16le())
	length := int(r.u32le())
	loopBeg := int(r.u32le())
	loopEnd := int(r.u32le())
	smp.Volume = clampVolume(int(r.u8()))
	r.seek(off + 0x1F)
	flags := r.u8()
	if c2spd := r.u32le(); c2spd > 0 {
		smp.BaseRate = float64(c2spd)
	}
	if r.err != nil {
		return smp, r.err
	}

	width := 1
	if flags&4 != 0 {
		width = 2
	}
	dataOff := memSeg * 16
	if avail := r.available(dataOff) / width; length > avail {
		length = avail
	}
	smp.Data = make([]float32, length)
	if length == 0 {
		return smp, nil
	}
	r.seek(dataOff)
	raw := r.bytes(length * width)
	for i := 0; i < length && raw != nil; i++ {
		if width == 2 {
			v := uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
			if unsigned {
				v ^= 0x8000
			}
			smp.Data[i] = float32(int16(v)) / 32768
		} else {
			v := raw[i]
			if unsigned {
				v ^= 0x80
			}
			smp.Data[i] = float32(int8(v)) / 128
		}
	}

	if flags&1 != 0 && loopEnd > loopBeg && loopBeg < length {
		if loopEnd > length {
			loopEnd = length
		}
		smp.LoopStart = loopBeg
		smp.LoopLen = loopEnd - loopBeg
	}
	return smp, r.err
}

func s3mPattern(r *reader, off, channels int) (Pattern, error) {
	pat := newPattern(s3mRows, channels)
	if off == 0 {
		return pat, nil
	}
	r.seek(off + 2)
	for row := 0; row < s3mRows; {
		what := r.u8()
		if r.err != nil {
			return pat, r.err
		}
		if what == 0 {
			row++
			continue
		}
		c := emptyCell
		if what&0x20 != 0 {
			c.Note = s3mNote(r.u8())
			c.Instrument = r.u8()
		}
		if what&0x40 != 0 {
			if v := r.u8(); v <= 64 {
				c.Volume = v
			}
		}
		if what&0x80 != 0 {
			c.Effect, c.Param = s3mEffect(r.u8(), r.u8())
		}
		if ch := int(what & 31); ch < channels {
			pat.Cells[row*channels+ch] = c
		}
	}
	return pat, r.err
}

func s3mNote(n uint8) uint8 {
	switch n {
	case 255:
		return NoteNone
	case 254:
		return NoteCut
	}
	oct, semi := int(n>>4), int(n&0x0F)
	if semi > 11 {
		return NoteNone
	}
	note := oct*12 + semi
	if note >= NumNotes {
		return NoteNone
	}
	return uint8(note)
}

func s3mEffect(cmd, info uint8) (Effect, uint8) {
	switch cmd {
	case 1: // A
		if info == 0 {
			return EffectNone, 0
		}
		return EffectSpeed, info
	case 2: // B
		return EffectJump, info
	case 3: // C
		return EffectBreak, (info>>4)*10 + info&0x0F
	case 4: // D
		hi, lo := info>>4, info&0x0F
		switch {
		case info == 0:
			return EffectNone, 0
		case lo == 0x0F && hi != 0:
			return EffectFineVolumeSlide, hi << 4
		case hi == 0x0F && lo != 0:
			return EffectFineVolumeSlide, lo
		case hi != 0:
			return EffectVolumeSlide, hi << 4
		default:
			return EffectVolumeSlide, lo
		}
	case 19: // S
		switch info >> 4 {
		case 0x8:
			return EffectPanning, (info & 0x0F) * 17
		case 0xC:
			return EffectNoteCut, info & 0x0F
		}
	case 20: // T
		if info >= 32 {
			return EffectTempo, info
		}
	case 24: // X
		if info > 0x80 {
			info = 0x80
		}
		p := int(info) * 2
		if p > 255 {
			p = 255
		}
		return EffectPanning, uint8(p)
	}
	return EffectNone, 0
}
