// ABOUTME: Playback state machine
// ABOUTME: States, their names and compare-and-swap transitions
package modplay

import (
	"fmt"
	"sync/atomic"
)

// State is the transport state of a Player
type State int32

const (
	StateEmpty State = iota
	StateReady
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// MarshalText lets State appear by name in JSON and YAML
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// stateMachine holds the current state. Control calls hold the player mutex
// while transitioning; the render path only ever moves Playing/Paused to
// Stopped, so every transition is a CAS from an expected state.
type stateMachine struct {
	v atomic.Int32
}

func (m *stateMachine) get() State {
	return State(m.v.Load())
}

func (m *stateMachine) set(s State) {
	m.v.Store(int32(s))
}

// transition moves to next if the current state is one of from
func (m *stateMachine) transition(next State, from ...State) bool {
	for _, f := range from {
		if m.v.CompareAndSwap(int32(f), int32(next)) {
			return true
		}
	}
	return false
}
