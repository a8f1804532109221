// ABOUTME: Control commands queued for the render goroutine
// ABOUTME: Each command mutates decoder transport at a buffer boundary without blocking control calls
package modplay

import (
	"sync"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
	"github.com/Resonate-Protocol/modplay-go/pkg/tracker"
)

type commandKind uint8

const (
	cmdLoad commandKind = iota
	cmdPlay
	cmdResume
	cmdPause
	cmdStop
	cmdRestart
)

type command struct {
	kind commandKind
	song *song
}

// commandQueue hands commands from control calls to whichever goroutine owns
// the decoder. push never waits on the consumer. A command of the same kind
// as the last pending one replaces it, so a stalled consumer leaves at most
// one entry per transition.
type commandQueue struct {
	mu       sync.Mutex
	pending  []command
	applying []command
}

func (q *commandQueue) push(c command) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.pending); n > 0 && q.pending[n-1].kind == c.kind {
		q.pending[n-1] = c
		return
	}
	q.pending = append(q.pending, c)
}

// take hands the pending commands to the consumer. With wait false it gives
// up instead of contending with a pushing control call. The returned slice
// is valid until the next take.
func (q *commandQueue) take(wait bool) []command {
	if wait {
		q.mu.Lock()
	} else if !q.mu.TryLock() {
		return nil
	}
	q.pending, q.applying = q.applying[:0], q.pending
	q.mu.Unlock()
	return q.applying
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// song is a parsed decoder and the smoothed VU levels that belong to it
type song struct {
	dec tracker.Decoder
	vu  *dsp.VUTracker
}

// apply runs on whichever goroutine currently owns the decoder
func (p *Player) apply(c command) {
	if c.kind == cmdLoad {
		p.cur = c.song
		return
	}
	if p.cur == nil {
		return
	}
	t := p.cur.dec.Transport()

	switch c.kind {
	case cmdPlay:
		t.EndOfSong = false
		t.Paused = false
		p.cur.dec.Initialize()
		t.Flags = tracker.FlagRestartRow | tracker.FlagResetChannels
		t.Playing = true
	case cmdResume:
		t.Paused = false
		t.Playing = true
	case cmdPause:
		t.Paused = true
		t.Playing = false
	case cmdStop:
		stopTransport(t)
	case cmdRestart:
		restartTransport(t)
		// drop a jump or break picked up on the row being played
		t.Flags |= tracker.FlagRestartRow
	}
}

func stopTransport(t *tracker.Transport) {
	t.Paused = false
	t.Playing = false
	t.EndOfSong = true
}

func restartTransport(t *tracker.Transport) {
	t.Position = 0
	t.Row = 0
	t.Paused = false
	t.Playing = true
	t.EndOfSong = false
}

// drain applies queued commands, then the latest filter flag. The render
// callback passes wait false and picks up a contended batch next buffer.
func (p *Player) drain(wait bool) {
	for _, c := range p.queue.take(wait) {
		p.apply(c)
	}
	if p.cur != nil {
		p.cur.dec.Transport().Filter = p.filter.Load()
	}
}
