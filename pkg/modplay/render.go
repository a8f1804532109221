// ABOUTME: Real-time render callback
// ABOUTME: Mixes, meters, emits ticks, processes and applies end-of-song policy
package modplay

import (
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
	"github.com/Resonate-Protocol/modplay-go/pkg/tracker"
)

// Status is a snapshot of the transport as of the last rendered buffer
type Status struct {
	State     State
	Loaded    bool
	Position  int
	Row       int
	Speed     int
	BPM       int
	Playing   bool
	Paused    bool
	EndOfSong bool
	Filter    bool

	Channels int
	VU       [tracker.MaxChannels]float32
}

// Levels returns the valid VU entries
func (s *Status) Levels() []float32 {
	return s.VU[:s.Channels]
}

func (s *Status) capture(cur *song) {
	if cur == nil {
		*s = Status{}
		return
	}
	t := cur.dec.Transport()
	s.Loaded = true
	s.Position = t.Position
	s.Row = t.Row
	s.Speed = t.Speed
	s.BPM = t.BPM
	s.Playing = t.Playing
	s.Paused = t.Paused
	s.EndOfSong = t.EndOfSong
	s.Filter = t.Filter
	s.Channels = cur.vu.CopyTo(s.VU[:])
}

func (t *Tick) capture(tr *tracker.Transport, vu *dsp.VUTracker) {
	t.Row = tr.Row
	t.Position = tr.Position
	t.Speed = tr.Speed
	t.BPM = tr.BPM
	t.EndOfSong = tr.EndOfSong
	t.Channels = vu.CopyTo(t.VU[:])
}

// render is the device callback. It never blocks: a contended render lock
// or a detached player yields silence.
func (p *Player) render(left, right []float32) {
	if !p.renderMu.TryLock() {
		silence(left, right)
		return
	}
	defer p.renderMu.Unlock()

	if !p.attached {
		silence(left, right)
		return
	}
	p.drain(false)
	p.renderBuffer(left, right)
	p.tone.Process(left, right)
}

func (p *Player) renderBuffer(left, right []float32) {
	cur := p.cur
	if cur == nil {
		silence(left, right)
		return
	}

	cur.dec.Mix([2][]float32{left, right}, len(left))
	t := cur.dec.Transport()
	cur.vu.Update(t.ChannelVU)

	if p.state.get() == StatePlaying {
		ev := Event{Kind: EventTick}
		ev.Tick.capture(t, cur.vu)
		p.listeners.emit(ev)
	}

	p.proc.Process(left, right)

	if t.EndOfSong && t.Playing {
		if p.loop.Load() {
			restartTransport(t)
		} else {
			stopTransport(t)
			if p.state.transition(StateStopped, StatePlaying, StatePaused) {
				p.listeners.emit(stateEvent(StateStopped))
			}
		}
	}

	if p.statusMu.TryLock() {
		p.status.capture(cur)
		p.statusMu.Unlock()
	}
}

func silence(left, right []float32) {
	for i := range left {
		left[i] = 0
	}
	for i := range right {
		right[i] = 0
	}
}
