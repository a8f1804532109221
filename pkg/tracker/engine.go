// ABOUTME: Shared sequencer and mixer for all module formats
// ABOUTME: Walks orders/rows at speed and bpm, mixes voices to stereo float
package tracker

import "math"

const (
	defaultSpeed      = 6
	defaultBPM        = 125
	defaultSampleRate = 44100
)

type voice struct {
	sample     *Sample
	instrument int // 1-based
	note       int
	pos        float64
	step       float64
	volume     int // 0..64
	pan        float32
	slide      uint8
	cutTick    int
}

// engine implements everything in Decoder except Parse
type engine struct {
	format     Format
	song       *Song
	t          Transport
	sampleRate int

	tick       int
	tickFrames int
	jumpPos    int
	breakRow   int

	voices [MaxChannels]voice
}

func newEngine(f Format) engine {
	return engine{format: f, sampleRate: defaultSampleRate, jumpPos: -1, breakRow: -1}
}

func (e *engine) Format() Format { return e.format }

func (e *engine) Title() string {
	if e.song == nil {
		return ""
	}
	return e.song.Title
}

func (e *engine) Signature() string {
	if e.song == nil {
		return ""
	}
	return e.song.Signature
}

func (e *engine) SongLength() int {
	if e.song == nil {
		return 0
	}
	return len(e.song.Orders)
}

func (e *engine) Channels() int {
	if e.song == nil {
		return 0
	}
	return e.song.Channels
}

func (e *engine) Patterns() int {
	if e.song == nil {
		return 0
	}
	return len(e.song.Patterns)
}

func (e *engine) InstrumentNames() []string {
	if e.song == nil {
		return nil
	}
	names := make([]string, len(e.song.Instruments))
	for i, inst := range e.song.Instruments {
		names[i] = inst.Name
	}
	return names
}

func (e *engine) Transport() *Transport { return &e.t }

func (e *engine) SetSampleRate(rate int) {
	if rate > 0 {
		e.sampleRate = rate
	}
}

// load installs a parsed song and resets the transport
func (e *engine) load(song *Song) {
	if song.Speed <= 0 {
		song.Speed = defaultSpeed
	}
	if song.BPM < 32 {
		song.BPM = defaultBPM
	}
	if song.Restart < 0 || song.Restart >= len(song.Orders) {
		song.Restart = 0
	}
	e.song = song
	e.t = Transport{ChannelVU: make([]float32, song.Channels)}
	e.Initialize()
}

func (e *engine) Initialize() {
	if e.song == nil {
		return
	}
	e.t.Position = 0
	e.t.Row = 0
	e.t.Speed = e.song.Speed
	e.t.BPM = e.song.BPM
	e.t.EndOfSong = false
	e.tick = 0
	e.tickFrames = 0
	e.jumpPos = -1
	e.breakRow = -1
	e.resetVoices()
}

func (e *engine) resetVoices() {
	for ch := range e.voices {
		pan := float32(0.5)
		if ch < len(e.song.Panning) {
			pan = e.song.Panning[ch]
		}
		e.voices[ch] = voice{pan: pan, cutTick: -1}
	}
}

func (e *engine) Mix(out [2][]float32, frames int) {
	left, right := out[0][:frames], out[1][:frames]
	for i := range left {
		left[i] = 0
		right[i] = 0
	}
	if e.song == nil || !e.t.Playing || e.t.Paused {
		return
	}

	if e.t.Flags&FlagResetChannels != 0 {
		e.resetVoices()
	}
	if e.t.Flags&FlagRestartRow != 0 {
		e.tick = 0
		e.tickFrames = 0
		e.jumpPos = -1
		e.breakRow = -1
	}
	e.t.Flags = 0

	for i := 0; i < frames; {
		if e.tickFrames <= 0 {
			e.processTick()
			e.tickFrames = e.framesPerTick()
		}
		n := frames - i
		if n > e.tickFrames {
			n = e.tickFrames
		}
		e.render(left[i:i+n], right[i:i+n])
		i += n
		e.tickFrames -= n
	}
}

func (e *engine) framesPerTick() int {
	bpm := e.t.BPM
	if bpm < 32 {
		bpm = 32
	}
	n := e.sampleRate * 5 / (bpm * 2)
	if n < 1 {
		n = 1
	}
	return n
}

func (e *engine) processTick() {
	if e.t.Position < 0 || e.t.Position >= len(e.song.Orders) {
		e.t.Position = e.song.Restart
		e.t.Row = 0
		e.t.EndOfSong = true
	}
	if e.t.Row < 0 || e.t.Row >= e.song.rows(e.t.Position) {
		e.t.Row = 0
	}

	if e.tick == 0 {
		e.processRow()
	} else {
		e.processEffects()
	}

	e.tick++
	if e.tick >= e.t.Speed {
		e.tick = 0
		e.advanceRow()
	}
}

func (e *engine) processRow() {
	for ch := 0; ch < e.song.Channels; ch++ {
		c := e.song.cell(e.t.Position, e.t.Row, ch)
		v := &e.voices[ch]
		v.slide = 0
		v.cutTick = -1

		if c.Instrument > 0 {
			v.instrument = int(c.Instrument)
			if c.Note == NoteNone && v.sample != nil {
				v.volume = v.sample.Volume
			}
		}

		switch {
		case c.Note < NumNotes:
			e.trigger(v, int(c.Note), c.Instrument > 0)
		case c.Note == NoteOff || c.Note == NoteCut:
			v.sample = nil
		}

		if c.Volume != VolumeNone {
			v.volume = clampVolume(int(c.Volume))
		}

		switch c.Effect {
		case EffectSpeed:
			if c.Param > 0 {
				e.t.Speed = int(c.Param)
			}
		case EffectTempo:
			if c.Param >= 32 {
				e.t.BPM = int(c.Param)
			}
		case EffectJump:
			e.jumpPos = int(c.Param)
		case EffectBreak:
			e.breakRow = int(c.Param)
		case EffectVolume:
			v.volume = clampVolume(int(c.Param))
		case EffectVolumeSlide:
			v.slide = c.Param
		case EffectFineVolumeSlide:
			v.volume = clampVolume(v.volume + int(c.Param>>4) - int(c.Param&0x0F))
		case EffectPanning:
			v.pan = float32(c.Param) / 255
		case EffectNoteCut:
			if c.Param == 0 {
				v.volume = 0
			} else {
				v.cutTick = int(c.Param)
			}
		}
	}
}

func (e *engine) trigger(v *voice, note int, withInstrument bool) {
	if v.instrument < 1 || v.instrument > len(e.song.Instruments) {
		v.sample = nil
		return
	}
	idx := e.song.Instruments[v.instrument-1].Keymap[note]
	if idx < 0 || idx >= len(e.song.Samples) || len(e.song.Samples[idx].Data) == 0 {
		v.sample = nil
		return
	}
	s := &e.song.Samples[idx]
	v.sample = s
	v.note = note
	v.pos = 0
	freq := s.BaseRate * math.Pow(2, float64(note+s.Transpose-MiddleC)/12+s.FineTune/12)
	v.step = freq / float64(e.sampleRate)
	if withInstrument {
		v.volume = s.Volume
		if s.Panning >= 0 {
			v.pan = s.Panning
		}
	}
}

func (e *engine) processEffects() {
	for ch := 0; ch < e.song.Channels; ch++ {
		v := &e.voices[ch]
		if v.slide != 0 {
			if up := int(v.slide >> 4); up > 0 {
				v.volume = clampVolume(v.volume + up)
			} else {
				v.volume = clampVolume(v.volume - int(v.slide&0x0F))
			}
		}
		if v.cutTick == e.tick {
			v.volume = 0
		}
	}
}

func (e *engine) advanceRow() {
	pos, row := e.t.Position, e.t.Row+1

	switch {
	case e.jumpPos >= 0:
		if e.jumpPos <= pos {
			e.t.EndOfSong = true
		}
		pos = e.jumpPos
		row = 0
		if e.breakRow >= 0 {
			row = e.breakRow
		}
	case e.breakRow >= 0:
		pos++
		row = e.breakRow
	case row >= e.song.rows(pos):
		pos++
		row = 0
	}
	e.jumpPos = -1
	e.breakRow = -1

	if pos >= len(e.song.Orders) {
		pos = e.song.Restart
		e.t.EndOfSong = true
	}
	if row >= e.song.rows(pos) {
		row = 0
	}
	e.t.Position = pos
	e.t.Row = row
}

func (e *engine) render(left, right []float32) {
	for ch := 0; ch < e.song.Channels; ch++ {
		v := &e.voices[ch]
		s := v.sample
		if s == nil || v.volume == 0 {
			continue
		}
		vol := float32(v.volume) / 64
		lgain, rgain := vol*(1-v.pan), vol*v.pan
		end := len(s.Data)
		looped := s.LoopLen > 0 && s.LoopStart+s.LoopLen <= end
		if looped {
			end = s.LoopStart + s.LoopLen
		}

		peak := e.t.ChannelVU[ch]
		for i := range left {
			idx := int(v.pos)
			if idx >= end {
				if !looped {
					v.sample = nil
					break
				}
				v.pos -= float64(s.LoopLen) * math.Floor((v.pos-float64(s.LoopStart))/float64(s.LoopLen))
				idx = int(v.pos)
			}
			next := idx + 1
			if next >= end {
				if looped {
					next = s.LoopStart
				} else {
					next = idx
				}
			}
			frac := float32(v.pos - float64(idx))
			smp := s.Data[idx] + (s.Data[next]-s.Data[idx])*frac

			left[i] += smp * lgain
			right[i] += smp * rgain
			if a := float32(math.Abs(float64(smp * vol))); a > peak {
				peak = a
			}
			v.pos += v.step
		}
		e.t.ChannelVU[ch] = peak
	}
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 64 {
		return 64
	}
	return v
}
