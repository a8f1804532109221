// ABOUTME: Typed playback events and listener registry
// ABOUTME: State changes and per-buffer ticks delivered by value
package modplay

import (
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/modplay-go/pkg/tracker"
)

// EventKind tells which field of an Event is set
type EventKind uint8

const (
	EventState EventKind = iota + 1
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventTick:
		return "tick"
	}
	return "unknown"
}

// Tick is emitted once per rendered buffer while Playing
type Tick struct {
	Row       int
	Position  int
	Speed     int
	BPM       int
	EndOfSong bool

	// Channels is the number of valid entries in VU
	Channels int
	VU       [tracker.MaxChannels]float32
}

// Levels returns the valid VU entries
func (t *Tick) Levels() []float32 {
	return t.VU[:t.Channels]
}

// Event is either a state change or a tick. It is passed by value so
// listeners never alias player memory.
type Event struct {
	Kind  EventKind
	State State // EventState
	Tick  Tick  // EventTick
}

func stateEvent(s State) Event {
	return Event{Kind: EventState, State: s}
}

// Listener receives events synchronously on the goroutine that produced
// them. Tick events arrive on the audio goroutine, so listeners must
// return quickly and must not call back into the Player.
type Listener func(Event)

type listenerEntry struct {
	id int
	fn Listener
}

// listeners is copy-on-write so emit never takes a lock
type listeners struct {
	mu     sync.Mutex
	nextID int
	list   atomic.Pointer[[]listenerEntry]
}

func (l *listeners) add(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	var next []listenerEntry
	if cur := l.list.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, listenerEntry{id: id, fn: fn})
	l.list.Store(&next)

	return func() { l.remove(id) }
}

func (l *listeners) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.list.Load()
	if cur == nil {
		return
	}
	next := make([]listenerEntry, 0, len(*cur))
	for _, e := range *cur {
		if e.id != id {
			next = append(next, e)
		}
	}
	l.list.Store(&next)
}

func (l *listeners) emit(ev Event) {
	cur := l.list.Load()
	if cur == nil {
		return
	}
	for _, e := range *cur {
		e.fn(ev)
	}
}
