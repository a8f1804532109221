// ABOUTME: Player facade for tracker module playback
// ABOUTME: Loads songs, drives transport, owns the audio device and events
package modplay

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/output"
	"github.com/Resonate-Protocol/modplay-go/pkg/tracker"
	"github.com/samber/lo"
)

// DefaultSampleRate is used when Config.SampleRate is zero
const DefaultSampleRate = 44100

// NoNamesPlaceholder is reported when a song carries no sample names
const NoNamesPlaceholder = "<Failed to load names>"

var (
	// ErrNoSong is returned by operations that need a loaded song
	ErrNoSong = errors.New("no song loaded")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("player closed")
)

var blankLines = regexp.MustCompile(`\n+`)

// Config holds player configuration
type Config struct {
	// SampleRate requested from the device (default: 44100)
	SampleRate int

	// Separation is the stereo image mode (default: narrow)
	Separation dsp.Separation

	// NoLoop stops at the end of the song instead of restarting
	NoLoop bool

	// Filter enables the Amiga "LED" low-pass for loaded songs
	Filter bool

	// Amiga500 lowers the fixed low-pass to 6 kHz
	Amiga500 bool

	// NewOutput creates the audio device on first Play (default: oto)
	NewOutput output.Factory

	// OnEvent is subscribed before any event can be emitted
	OnEvent Listener
}

type songInfo struct {
	format     tracker.Format
	title      string
	signature  string
	songLength int
	channels   int
	patterns   int
	names      []string
}

// Player plays tracker modules
type Player struct {
	config Config

	// mu serializes control calls
	mu        sync.Mutex
	state     stateMachine
	loop      atomic.Bool
	listeners listeners
	proc      *dsp.Processor
	queue     commandQueue
	filter    atomic.Bool

	out    output.Output
	tone   *dsp.ToneStage
	info   *songInfo
	closed bool

	// renderMu is held by the render callback; control code takes it only
	// to attach or detach the device
	renderMu sync.Mutex
	attached bool
	cur      *song

	statusMu sync.Mutex
	status   Status
}

// NewPlayer creates a player in the Empty state. No device is opened until
// the first Play.
func NewPlayer(config Config) (*Player, error) {
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.SampleRate < 0 {
		return nil, fmt.Errorf("invalid sample rate %d", config.SampleRate)
	}
	if config.NewOutput == nil {
		config.NewOutput = output.NewOto
	}

	p := &Player{
		config: config,
		proc:   dsp.NewProcessor(config.Separation),
	}
	p.filter.Store(config.Filter)
	p.loop.Store(!config.NoLoop)
	p.state.set(StateEmpty)
	if config.OnEvent != nil {
		p.listeners.add(config.OnEvent)
	}
	return p, nil
}

// Subscribe registers a listener and returns a function that removes it
func (p *Player) Subscribe(l Listener) func() {
	return p.listeners.add(l)
}

// send hands a command to the decoder owner: the render callback once a
// device is attached, otherwise the calling goroutine. It never waits for
// the render callback.
func (p *Player) send(c command) {
	if p.out != nil {
		p.queue.push(c)
		return
	}
	p.apply(c)
	p.publishStatus()
}

// publishStatus snapshots the decoder from the control goroutine. Only valid
// while no device is attached.
func (p *Player) publishStatus() {
	p.statusMu.Lock()
	p.status.capture(p.cur)
	p.statusMu.Unlock()
}

func (p *Player) emit(s State) {
	p.listeners.emit(stateEvent(s))
}

// Load parses data as a module of the given format tag and makes it the
// current song. Unknown tags return *tracker.UnknownFormatError and parse
// failures wrap tracker.ErrParse; in both cases the previous song and state
// are untouched.
func (p *Player) Load(format string, data []byte) error {
	f, err := tracker.ParseFormat(format)
	if err != nil {
		return err
	}
	dec, err := tracker.New(f)
	if err != nil {
		return err
	}
	if err := parse(dec, data); err != nil {
		log.Printf("Failed to load song: %v", err)
		return fmt.Errorf("load %s: %w", f, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	if p.out != nil {
		dec.SetSampleRate(p.out.SampleRate())
	} else {
		dec.SetSampleRate(p.config.SampleRate)
	}
	dec.Transport().Filter = p.filter.Load()
	p.info = &songInfo{
		format:     f,
		title:      dec.Title(),
		signature:  dec.Signature(),
		songLength: dec.SongLength(),
		channels:   dec.Channels(),
		patterns:   dec.Patterns(),
		names:      dec.InstrumentNames(),
	}
	p.send(command{kind: cmdLoad, song: &song{dec: dec, vu: dsp.NewVUTracker(dec.Channels())}})
	if p.tone != nil {
		p.tone.SetFilterCutoff(dsp.FilterCutoff(p.filter.Load()))
	}

	log.Printf("Loaded %s module %q: %d channels, %d orders", f, p.info.title, p.info.channels, p.info.songLength)
	p.state.set(StateReady)
	p.emit(StateReady)
	return nil
}

// parse converts a decoder panic into a parse error
func parse(dec tracker.Decoder, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: decoder panic: %v", tracker.ErrParse, r)
		}
	}()
	return dec.Parse(data)
}

// LoadFile reads a module from disk, picking the format from the extension
func (p *Player) LoadFile(path string) error {
	if _, err := tracker.FormatFromPath(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read module: %w", err)
	}
	return p.Load(filepath.Ext(path), data)
}

// Play starts a Ready song or resumes a Paused one. The audio device is
// opened on the first call. In any other state Play does nothing.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	switch p.state.get() {
	case StateReady:
		if err := p.openDevice(); err != nil {
			return err
		}
		if p.state.transition(StatePlaying, StateReady) {
			p.send(command{kind: cmdPlay})
			p.emit(StatePlaying)
		}
	case StatePaused:
		if p.state.transition(StatePlaying, StatePaused) {
			p.send(command{kind: cmdResume})
			p.emit(StatePlaying)
		}
	}
	return nil
}

// openDevice creates and starts the output. Rendering stays silent until
// the device rate is known and the tone stage is built.
func (p *Player) openDevice() error {
	if p.out != nil {
		return nil
	}

	out := p.config.NewOutput()
	if err := out.Open(p.config.SampleRate, p.render); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	rate := out.SampleRate()
	if rate <= 0 {
		rate = p.config.SampleRate
	}
	if p.cur != nil {
		p.cur.dec.SetSampleRate(rate)
	}
	tone := dsp.NewToneStage(rate, p.config.Amiga500, dsp.FilterCutoff(p.filter.Load()))

	p.renderMu.Lock()
	p.tone = tone
	p.attached = true
	p.renderMu.Unlock()

	p.out = out
	return nil
}

// Pause pauses a Playing song
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.transition(StatePaused, StatePlaying) {
		p.send(command{kind: cmdPause})
		p.emit(StatePaused)
	}
}

// Stop stops a Playing or Paused song. A stopped song resumes only through
// Restart or a new Load.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.transition(StateStopped, StatePlaying, StatePaused) {
		p.send(command{kind: cmdStop})
		p.emit(StateStopped)
	}
}

// Restart rewinds the song to the first order and sets it playing without
// changing State.
func (p *Player) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.info == nil {
		return ErrNoSong
	}
	p.send(command{kind: cmdRestart})
	return nil
}

// Close stops rendering and releases the audio device
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.out == nil {
		return nil
	}

	err := p.out.Close()

	// wait out an in-flight render, then take the decoder back
	p.renderMu.Lock()
	p.attached = false
	p.renderMu.Unlock()
	p.out = nil
	p.drain(true)
	p.publishStatus()

	if err != nil {
		return fmt.Errorf("failed to close audio output: %w", err)
	}
	return nil
}

// State returns the current playback state
func (p *Player) State() State {
	return p.state.get()
}

// Status returns the transport snapshot published by the last buffer
func (p *Player) Status() Status {
	p.statusMu.Lock()
	s := p.status
	p.statusMu.Unlock()
	s.State = p.state.get()
	return s
}

// SampleRate returns the device rate, or the configured rate before Play
func (p *Player) SampleRate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		return p.out.SampleRate()
	}
	return p.config.SampleRate
}

// BufferFrames returns the device buffer length
func (p *Player) BufferFrames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		return p.out.BufferFrames()
	}
	return output.BufferFrames(p.config.SampleRate)
}

// SetLoop enables or disables restarting at the end of the song
func (p *Player) SetLoop(loop bool) {
	p.loop.Store(loop)
}

// Loop reports whether loop mode is on
func (p *Player) Loop() bool {
	return p.loop.Load()
}

// SetSeparation changes the stereo separation mode
func (p *Player) SetSeparation(mode dsp.Separation) {
	p.proc.SetSeparation(mode)
}

// Separation returns the stereo separation mode
func (p *Player) Separation() dsp.Separation {
	return p.proc.Separation()
}

// SetFilter turns the "LED" low-pass on or off. It is remembered for songs
// loaded later. The render callback picks up the latest value each buffer.
func (p *Player) SetFilter(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filter.Store(on)
	if p.out == nil && p.cur != nil {
		p.cur.dec.Transport().Filter = on
		p.publishStatus()
	}
	if p.tone != nil {
		p.tone.SetFilterCutoff(dsp.FilterCutoff(on))
	}
}

// Filter returns the filter flag of the loaded song
func (p *Player) Filter() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info == nil {
		return false, false
	}
	return p.filter.Load(), true
}

// FilterCutoff returns the current filter low-pass cutoff in Hz
func (p *Player) FilterCutoff() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return dsp.FilterCutoff(p.filter.Load())
}

func (p *Player) loaded() *songInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

// Format returns the format of the loaded song
func (p *Player) Format() (tracker.Format, bool) {
	if s := p.loaded(); s != nil {
		return s.format, true
	}
	return 0, false
}

// Title returns the song title
func (p *Player) Title() (string, bool) {
	if s := p.loaded(); s != nil {
		return s.title, true
	}
	return "", false
}

// Signature returns the format signature of the song
func (p *Player) Signature() (string, bool) {
	if s := p.loaded(); s != nil {
		return s.signature, true
	}
	return "", false
}

// SongLength returns the number of orders
func (p *Player) SongLength() (int, bool) {
	if s := p.loaded(); s != nil {
		return s.songLength, true
	}
	return 0, false
}

// Channels returns the channel count
func (p *Player) Channels() (int, bool) {
	if s := p.loaded(); s != nil {
		return s.channels, true
	}
	return 0, false
}

// Patterns returns the pattern count
func (p *Player) Patterns() (int, bool) {
	if s := p.loaded(); s != nil {
		return s.patterns, true
	}
	return 0, false
}

// SampleNames returns the instrument or sample names
func (p *Player) SampleNames() ([]string, bool) {
	s := p.loaded()
	if s == nil {
		return nil, false
	}
	names := lo.Ternary(len(s.names) > 0, s.names, []string{NoNamesPlaceholder})
	return append([]string(nil), names...), true
}

// Description joins the sample names, one per line, with runs of blank
// lines collapsed. Trackers traditionally carry song notes there.
func (p *Player) Description() (string, bool) {
	names, ok := p.SampleNames()
	if !ok {
		return "", false
	}
	return blankLines.ReplaceAllString(strings.Join(names, "\n"), "\n"), true
}
