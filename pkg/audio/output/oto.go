// ABOUTME: Oto-based audio output implementation
// ABOUTME: Feeds oto from a pull reader that renders fixed-size stereo blocks
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto only allows one context per process
var (
	otoMu   sync.Mutex
	otoCtx  *oto.Context
	otoRate int
)

func sharedContext(sampleRate, frames int) (*oto.Context, int, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoRate != sampleRate {
			log.Printf("Warning: oto context already running at %dHz, ignoring requested %dHz", otoRate, sampleRate)
		}
		return otoCtx, otoRate, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(frames) * time.Second / time.Duration(sampleRate),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	otoCtx = ctx
	otoRate = sampleRate
	return ctx, sampleRate, nil
}

// Oto plays through the system audio device
type Oto struct {
	mu         sync.Mutex
	player     *oto.Player
	stream     *renderStream
	sampleRate int
	frames     int
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Open initializes the device and starts pulling audio from render
func (o *Oto) Open(sampleRate int, render RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return fmt.Errorf("output already open")
	}

	ctx, rate, err := sharedContext(sampleRate, BufferFrames(sampleRate))
	if err != nil {
		return err
	}
	if err := ctx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.sampleRate = rate
	o.frames = BufferFrames(rate)
	o.stream = newRenderStream(o.frames, render)
	o.player = ctx.NewPlayer(o.stream)
	o.player.SetBufferSize(o.frames * 2 * 4)
	o.player.Play()

	log.Printf("Audio output initialized: %dHz, %d frames per buffer", rate, o.frames)
	return nil
}

// SampleRate returns the device rate
func (o *Oto) SampleRate() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sampleRate
}

// BufferFrames returns the render block size
func (o *Oto) BufferFrames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frames
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stream != nil {
		o.stream.close()
	}
	var err error
	if o.player != nil {
		err = o.player.Close()
		o.player = nil
	}
	o.stream = nil
	return err
}

// renderStream is the io.Reader oto pulls from. Each refill renders exactly
// frames frames, so the render function always sees a fixed block size
// regardless of how oto sizes its reads.
type renderStream struct {
	render  RenderFunc
	left    []float32
	right   []float32
	block   []byte
	pending []byte
	closed  atomic.Bool
}

func newRenderStream(frames int, render RenderFunc) *renderStream {
	return &renderStream{
		render: render,
		left:   make([]float32, frames),
		right:  make([]float32, frames),
		block:  make([]byte, frames*2*4),
	}
}

func (s *renderStream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		if len(s.pending) == 0 {
			s.fill()
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

func (s *renderStream) fill() {
	s.render(s.left, s.right)
	for i := range s.left {
		binary.LittleEndian.PutUint32(s.block[i*8:], math.Float32bits(s.left[i]))
		binary.LittleEndian.PutUint32(s.block[i*8+4:], math.Float32bits(s.right[i]))
	}
	s.pending = s.block
}

func (s *renderStream) close() {
	s.closed.Store(true)
}
