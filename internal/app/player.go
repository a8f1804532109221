// ABOUTME: Main player application orchestration
// ABOUTME: Coordinates the module player with hot reload, telemetry, mDNS and the TUI
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/modplay-go/internal/discovery"
	"github.com/Resonate-Protocol/modplay-go/internal/protocol"
	"github.com/Resonate-Protocol/modplay-go/internal/telemetry"
	"github.com/Resonate-Protocol/modplay-go/internal/ui"
	"github.com/Resonate-Protocol/modplay-go/internal/version"
	"github.com/Resonate-Protocol/modplay-go/internal/watch"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/output"
	"github.com/Resonate-Protocol/modplay-go/pkg/modplay"
	tea "github.com/charmbracelet/bubbletea"
)

const statusInterval = 50 * time.Millisecond

// Config holds player application configuration
type Config struct {
	File string

	SampleRate int
	Separation dsp.Separation
	Loop       bool
	Filter     bool
	Amiga500   bool

	// Watch reloads File when it changes on disk
	Watch bool

	// TelemetryAddr enables the websocket feed when non-empty
	TelemetryAddr string
	Name          string
	EnableMDNS    bool

	UseTUI bool

	// NewOutput overrides the audio device (default: oto)
	NewOutput output.Factory
}

// Player represents the main player application
type Player struct {
	config Config
	player *modplay.Player

	watcher   *watch.Watcher
	hub       *telemetry.Hub
	discovery *discovery.Manager
	tuiProg   *tea.Program
	ctrl      *ui.Control

	states   chan modplay.State
	finished chan struct{}
	finOnce  sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new player application
func New(config Config) (*Player, error) {
	if config.File == "" {
		return nil, errors.New("no module file given")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		config:   config,
		states:   make(chan modplay.State, 16),
		finished: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	mp, err := modplay.NewPlayer(modplay.Config{
		SampleRate: config.SampleRate,
		Separation: config.Separation,
		NoLoop:     !config.Loop,
		Filter:     config.Filter,
		Amiga500:   config.Amiga500,
		NewOutput:  config.NewOutput,
		OnEvent:    p.onEvent,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	p.player = mp
	return p, nil
}

// Player returns the underlying module player
func (p *Player) Player() *modplay.Player {
	return p.player
}

// Finished is closed when the app should exit: the TUI quit, or the song
// stopped while running headless
func (p *Player) Finished() <-chan struct{} {
	return p.finished
}

// onEvent runs on the control or audio goroutine and must not block
func (p *Player) onEvent(ev modplay.Event) {
	if p.hub != nil {
		p.hub.Publish(ev)
	}
	if ev.Kind != modplay.EventState {
		return
	}
	select {
	case p.states <- ev.State:
	default:
	}
}

// Start loads the module, starts playback and the optional services
func (p *Player) Start() error {
	if p.config.TelemetryAddr != "" {
		if err := p.startTelemetry(); err != nil {
			return err
		}
	}

	if p.config.UseTUI {
		p.ctrl = ui.NewControl()
		tuiProg, err := ui.Run(p.ctrl)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		p.tuiProg = tuiProg
		p.goRun(func() {
			if _, err := p.tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			p.finish()
		})
		p.goRun(p.handleControls)
		p.goRun(p.statusLoop)
	}

	p.goRun(p.handleStates)

	if err := p.Reload(); err != nil {
		return err
	}

	if p.config.Watch {
		w, err := watch.New(p.config.File, 0)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", p.config.File, err)
		}
		p.watcher = w
		p.goRun(p.handleReloads)
		log.Printf("Watching %s for changes", w.Path())
	}

	return nil
}

func (p *Player) goRun(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

func (p *Player) startTelemetry() error {
	p.hub = telemetry.New(telemetry.Config{
		Name:       p.config.Name,
		Controller: p.player,
	})
	if err := p.hub.Start(p.config.TelemetryAddr); err != nil {
		return err
	}

	if p.config.EnableMDNS {
		p.discovery = discovery.NewManager(discovery.Config{
			ServiceName: p.config.Name,
			Port:        p.hub.Port(),
			Path:        telemetry.DefaultPath,
			Info:        []string{"version=" + version.Version},
		})
		if err := p.discovery.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}
	return nil
}

// Reload loads the module file again and starts it playing
func (p *Player) Reload() error {
	if err := p.player.LoadFile(p.config.File); err != nil {
		return err
	}
	p.announceSong()
	return p.player.Play()
}

// announceSong pushes the loaded song's description to the TUI and hub
func (p *Player) announceSong() {
	format, ok := p.player.Format()
	if !ok {
		return
	}
	title, _ := p.player.Title()
	signature, _ := p.player.Signature()
	length, _ := p.player.SongLength()
	channels, _ := p.player.Channels()
	patterns, _ := p.player.Patterns()
	names, _ := p.player.SampleNames()

	if p.hub != nil {
		p.hub.SetSong(protocol.Song{
			Format:     format.String(),
			Title:      title,
			Signature:  signature,
			SongLength: length,
			Channels:   channels,
			Patterns:   patterns,
			Samples:    names,
		})
	}
	if p.tuiProg != nil {
		go p.tuiProg.Send(ui.SongMsg{
			Format:      format.String(),
			Title:       title,
			Signature:   signature,
			SongLength:  length,
			Channels:    channels,
			Patterns:    patterns,
			SampleNames: names,
		})
	}
}

// handleStates logs state changes and ends a headless run when the song stops
func (p *Player) handleStates() {
	for {
		select {
		case s := <-p.states:
			log.Printf("Player state: %s", s)
			if s == modplay.StateStopped && !p.config.UseTUI {
				p.finish()
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// handleReloads reloads the module whenever the watcher reports a change
func (p *Player) handleReloads() {
	for {
		select {
		case path, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			log.Printf("Module changed, reloading %s", path)
			if err := p.Reload(); err != nil {
				log.Printf("Reload failed: %v", err)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		case <-p.ctx.Done():
			return
		}
	}
}

// handleControls applies key actions from the TUI
func (p *Player) handleControls() {
	for {
		select {
		case a := <-p.ctrl.Actions:
			if err := p.HandleAction(a); err != nil {
				log.Printf("Action %s failed: %v", a, err)
			}
		case <-p.ctrl.Quit:
			log.Printf("Received quit signal from TUI")
			p.finish()
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// HandleAction applies one UI action to the player
func (p *Player) HandleAction(a ui.Action) error {
	switch a {
	case ui.ActionTogglePlay:
		switch p.player.State() {
		case modplay.StatePlaying:
			p.player.Pause()
		case modplay.StateStopped:
			return p.Reload()
		default:
			return p.player.Play()
		}
	case ui.ActionStop:
		p.player.Stop()
	case ui.ActionRestart:
		return p.player.Restart()
	case ui.ActionToggleFilter:
		on, _ := p.player.Filter()
		p.player.SetFilter(!on)
	case ui.ActionToggleLoop:
		p.player.SetLoop(!p.player.Loop())
	case ui.ActionCycleSeparation:
		p.player.SetSeparation(nextSeparation(p.player.Separation()))
	default:
		return fmt.Errorf("unknown action %d", a)
	}
	return nil
}

func nextSeparation(s dsp.Separation) dsp.Separation {
	switch s {
	case dsp.SeparationOff:
		return dsp.SeparationNarrow
	case dsp.SeparationNarrow:
		return dsp.SeparationMono
	}
	return dsp.SeparationOff
}

// StatusMsg builds a TUI update from the player's latest snapshot
func (p *Player) StatusMsg() ui.StatusMsg {
	s := p.player.Status()
	filter, _ := p.player.Filter()
	loop := p.player.Loop()
	return ui.StatusMsg{
		State:      s.State.String(),
		Position:   s.Position,
		Row:        s.Row,
		Speed:      s.Speed,
		BPM:        s.BPM,
		VU:         append([]float32(nil), s.Levels()...),
		Filter:     &filter,
		Loop:       &loop,
		Separation: p.player.Separation().String(),
	}
}

// statusLoop periodically updates the TUI with transport and meters
func (p *Player) statusLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tuiProg.Send(p.StatusMsg())
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Player) finish() {
	p.finOnce.Do(func() { close(p.finished) })
}

// Stop shuts everything down
func (p *Player) Stop() {
	p.cancel()

	if p.watcher != nil {
		p.watcher.Close()
	}
	if p.tuiProg != nil {
		p.tuiProg.Quit()
	}
	if p.discovery != nil {
		p.discovery.Stop()
	}
	if err := p.player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}
	if p.hub != nil {
		p.hub.Stop()
	}

	p.wg.Wait()
	log.Printf("Player stopped")
}
