// ABOUTME: WebSocket client for a player's telemetry hub
// ABOUTME: Handles connection, the hello greeting, and message routing
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/modplay-go/internal/protocol"
	"github.com/gorilla/websocket"
)

// Config holds client configuration
type Config struct {
	// URL of the hub endpoint, e.g. ws://host:8928/telemetry
	URL string
}

// Client receives telemetry from one hub
type Client struct {
	config Config
	conn   *websocket.Conn
	hello  protocol.Hello
	mu     sync.RWMutex

	// Message channels
	States chan protocol.State
	Ticks  chan protocol.Tick
	Songs  chan protocol.Song
	Errors chan protocol.Error

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		States: make(chan protocol.State, 16),
		Ticks:  make(chan protocol.Tick, 64),
		Songs:  make(chan protocol.Song, 4),
		Errors: make(chan protocol.Error, 4),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Connect dials the hub and waits for its hello
func (c *Client) Connect() error {
	log.Printf("Connecting to %s", c.config.URL)

	conn, _, err := websocket.DefaultDialer.Dial(c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake reads the hub/hello greeting
func (c *Client) handshake() error {
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read hub/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg protocol.Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse hub/hello: %w", err)
	}
	if msg.Type != protocol.TypeHello {
		return fmt.Errorf("expected %s, got %s", protocol.TypeHello, msg.Type)
	}

	var hello protocol.Hello
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		return fmt.Errorf("failed to parse hub/hello payload: %w", err)
	}

	c.mu.Lock()
	c.hello = hello
	c.mu.Unlock()

	log.Printf("Connected to hub %s (%s %s)", hello.Name, hello.DeviceInfo.ProductName, hello.DeviceInfo.SoftwareVersion)
	return nil
}

// Hello returns the greeting received from the hub
func (c *Client) Hello() protocol.Hello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// Done is closed once the connection has ended
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer close(c.done)
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}

		if messageType == websocket.TextMessage {
			c.handleJSONMessage(data)
		}
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg protocol.Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeState:
		var state protocol.State
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			log.Printf("Bad state payload: %v", err)
			return
		}
		select {
		case c.States <- state:
		case <-c.ctx.Done():
		}

	case protocol.TypeTick:
		var tick protocol.Tick
		if err := json.Unmarshal(msg.Payload, &tick); err != nil {
			log.Printf("Bad tick payload: %v", err)
			return
		}
		// ticks are frequent and superseded by the next one
		select {
		case c.Ticks <- tick:
		default:
		}

	case protocol.TypeSong:
		var song protocol.Song
		if err := json.Unmarshal(msg.Payload, &song); err != nil {
			log.Printf("Bad song payload: %v", err)
			return
		}
		select {
		case c.Songs <- song:
		case <-c.ctx.Done():
		}

	case protocol.TypeError:
		var e protocol.Error
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			log.Printf("Bad error payload: %v", err)
			return
		}
		log.Printf("Hub error: %s: %s", e.Error, e.Message)
		select {
		case c.Errors <- e:
		default:
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// SendCommand sends a player/command message
func (c *Client) SendCommand(cmd protocol.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(protocol.Message{Type: protocol.TypeCommand, Payload: cmd})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
