// ABOUTME: Telemetry message type definitions
// ABOUTME: JSON envelopes exchanged between the player hub and its clients
package protocol

import "encoding/json"

// Version of the telemetry message set
const Version = 1

// Message types sent by the hub
const (
	TypeHello = "hub/hello"
	TypeState = "player/state"
	TypeTick  = "player/tick"
	TypeSong  = "player/song"
	TypeError = "hub/error"
)

// Message types sent by clients
const (
	TypeCommand = "player/command"
)

// Commands accepted in a player/command message
const (
	CommandPlay    = "play"
	CommandPause   = "pause"
	CommandStop    = "stop"
	CommandRestart = "restart"
	CommandFilter  = "filter"
	CommandLoop    = "loop"
)

// Message is the top-level wrapper for all telemetry messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received message whose payload is decoded later
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// Hello is sent to every client when it connects
type Hello struct {
	HubID      string     `json:"hub_id"`
	ClientID   string     `json:"client_id"`
	Name       string     `json:"name"`
	Version    int        `json:"version"`
	DeviceInfo DeviceInfo `json:"device_info"`
}

// State reports a playback state change
type State struct {
	State string `json:"state"`
}

// Tick reports the transport position and VU levels of one rendered buffer
type Tick struct {
	Position  int       `json:"position"`
	Row       int       `json:"row"`
	Speed     int       `json:"speed"`
	BPM       int       `json:"bpm"`
	EndOfSong bool      `json:"end_of_song,omitempty"`
	VU        []float32 `json:"vu"`
}

// Song describes the loaded module
type Song struct {
	Format     string   `json:"format"`
	Title      string   `json:"title"`
	Signature  string   `json:"signature"`
	SongLength int      `json:"song_length"`
	Channels   int      `json:"channels"`
	Patterns   int      `json:"patterns"`
	Samples    []string `json:"samples,omitempty"`
}

// Command asks the player to change transport or tone settings
type Command struct {
	Command string `json:"command"`
	Enabled *bool  `json:"enabled,omitempty"` // filter, loop
}

// Error is sent when a client message cannot be handled
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
