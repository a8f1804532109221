// ABOUTME: Decoder interface definition
// ABOUTME: Common capability contract shared by all module format decoders
package tracker

// MaxChannels is the highest channel count any supported format can carry
const MaxChannels = 32

// Transport initialization flags
const (
	// FlagRestartRow makes the next Mix call process the current row immediately,
	// dropping any pending position jump or pattern break
	FlagRestartRow = 1 << 0

	// FlagResetChannels silences every voice before the next Mix call
	FlagResetChannels = 1 << 1
)

// Transport holds the mutable playback fields of a decoder
type Transport struct {
	Position  int  // Order list index
	Row       int  // Row within the current pattern
	Speed     int  // Ticks per row
	BPM       int  // Tempo
	Paused    bool // Paused by the host
	Playing   bool // Mixing is active
	EndOfSong bool // Reached the end of the order list (or looped back)
	Filter    bool // Amiga "LED" filter requested
	Flags     int  // FlagRestartRow | FlagResetChannels, consumed by Mix

	// ChannelVU accumulates the peak level per channel since last reset
	ChannelVU []float32
}

// Decoder parses a module and renders raw stereo audio from it
type Decoder interface {
	// Format returns the format variant this decoder handles
	Format() Format

	// Parse interprets data as a module of this format.
	// Malformed input returns an error wrapping ErrParse.
	Parse(data []byte) error

	// Metadata
	Title() string
	Signature() string
	SongLength() int
	Channels() int
	Patterns() int
	InstrumentNames() []string

	// Transport returns the mutable playback fields
	Transport() *Transport

	// SetSampleRate sets the output rate used by Mix
	SetSampleRate(rate int)

	// Initialize resets the transport to the start of the song
	Initialize()

	// Mix renders frames stereo samples into out, advancing the transport.
	// It writes silence when not playing or paused.
	Mix(out [2][]float32, frames int)
}
