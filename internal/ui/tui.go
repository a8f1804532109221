// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the key action channel
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Action is a transport or tone request made from the keyboard
type Action int

const (
	ActionTogglePlay Action = iota + 1
	ActionStop
	ActionRestart
	ActionToggleFilter
	ActionToggleLoop
	ActionCycleSeparation
)

func (a Action) String() string {
	switch a {
	case ActionTogglePlay:
		return "toggle-play"
	case ActionStop:
		return "stop"
	case ActionRestart:
		return "restart"
	case ActionToggleFilter:
		return "toggle-filter"
	case ActionToggleLoop:
		return "toggle-loop"
	case ActionCycleSeparation:
		return "cycle-separation"
	}
	return "unknown"
}

// Control holds channels carrying key actions out of the TUI
type Control struct {
	Actions chan Action
	Quit    chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Actions: make(chan Action, 10),
		Quit:    make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		state: "empty",
		loop:  true,
		ctrl:  ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
