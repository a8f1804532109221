// ABOUTME: Websocket telemetry hub for a local player
// ABOUTME: Broadcasts state and tick events as JSON and accepts transport commands
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/modplay-go/internal/protocol"
	"github.com/Resonate-Protocol/modplay-go/internal/version"
	"github.com/Resonate-Protocol/modplay-go/pkg/modplay"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultPath is where the websocket endpoint is mounted
	DefaultPath = "/telemetry"

	eventQueueSize  = 256
	clientQueueSize = 64
	writeDeadline   = 10 * time.Second
	pingInterval    = 30 * time.Second
)

// Controller is the subset of the player that remote clients may drive
type Controller interface {
	Play() error
	Pause()
	Stop()
	Restart() error
	SetFilter(on bool)
	SetLoop(loop bool)
}

// Config holds hub configuration
type Config struct {
	Name string
	Path string

	// Controller is optional; without it the feed is read-only
	Controller Controller
	Debug      bool
}

// Hub fans player events out to websocket clients
type Hub struct {
	config Config
	hubID  string

	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	httpServer *http.Server
	listener   net.Listener

	clients   map[string]*Client
	clientsMu sync.RWMutex

	events  chan modplay.Event
	dropped atomic.Uint64

	// State changes bypass the event queue so a tick flood cannot lose them
	lastState   atomic.Int32
	stateSignal chan struct{}

	lastMu   sync.Mutex
	lastSong *protocol.Song

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
	loopDone   chan struct{}
}

// Client is a connected telemetry consumer
type Client struct {
	ID       string
	Conn     *websocket.Conn
	sendChan chan []byte
}

// New creates a hub and starts its broadcast loop
func New(config Config) *Hub {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.Name == "" {
		config.Name = version.Product
	}

	h := &Hub{
		config: config,
		hubID:  uuid.New().String(),
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Local network dashboards only
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[string]*Client),
		events:      make(chan modplay.Event, eventQueueSize),
		stateSignal: make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
		loopDone:    make(chan struct{}),
	}
	h.mux.HandleFunc(config.Path, h.handleWebSocket)

	go h.broadcastLoop()
	return h
}

// ID returns the hub's unique identifier
func (h *Hub) ID() string {
	return h.hubID
}

// Handler returns the HTTP handler serving the websocket endpoint
func (h *Hub) Handler() http.Handler {
	return h.mux
}

// Start listens on addr and serves in the background
func (h *Hub) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("telemetry listen: %w", err)
	}
	h.listener = ln
	h.httpServer = &http.Server{Handler: h.mux}

	log.Printf("Telemetry hub %s listening on %s%s", h.hubID, ln.Addr(), h.config.Path)

	go func() {
		if err := h.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Telemetry server error: %v", err)
		}
	}()
	return nil
}

// Port returns the listening port, 0 before Start
func (h *Hub) Port() int {
	if h.listener == nil {
		return 0
	}
	if addr, ok := h.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Publish queues an event for broadcast. It never blocks, so it is safe to
// subscribe directly to a player. Ticks are dropped when the queue is full;
// the latest state is always recorded and broadcast.
func (h *Hub) Publish(ev modplay.Event) {
	if ev.Kind == modplay.EventState {
		h.lastState.Store(int32(ev.State))
		select {
		case h.stateSignal <- struct{}{}:
		default:
		}
		return
	}
	select {
	case h.events <- ev:
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns the number of tick events discarded because the queue was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// SetSong records the loaded song and announces it to clients
func (h *Hub) SetSong(song protocol.Song) {
	h.lastMu.Lock()
	h.lastSong = &song
	h.lastMu.Unlock()

	if data, err := encode(protocol.TypeSong, song); err == nil {
		h.broadcast(data)
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Stop shuts the hub down and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.shutdownMu.Lock()
		h.isShutdown = true
		h.shutdownMu.Unlock()

		close(h.stopChan)
		<-h.loopDone

		if h.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.httpServer.Shutdown(ctx); err != nil {
				log.Printf("Telemetry shutdown error: %v", err)
			}
		}

		h.clientsMu.RLock()
		for _, c := range h.clients {
			c.Conn.Close()
		}
		h.clientsMu.RUnlock()

		h.wg.Wait()
		log.Printf("Telemetry hub stopped")
	})
}

func (h *Hub) broadcastLoop() {
	defer close(h.loopDone)

	for {
		select {
		case <-h.stateSignal:
			state := modplay.State(h.lastState.Load())
			data, err := encode(protocol.TypeState, protocol.State{State: state.String()})
			if err != nil {
				log.Printf("Error encoding state: %v", err)
				continue
			}
			h.broadcastState(data)
		case ev := <-h.events:
			data, err := h.encodeEvent(ev)
			if err != nil {
				log.Printf("Error encoding event: %v", err)
				continue
			}
			h.broadcast(data)
		case <-h.stopChan:
			return
		}
	}
}

func (h *Hub) encodeEvent(ev modplay.Event) ([]byte, error) {
	switch ev.Kind {
	case modplay.EventTick:
		return encode(protocol.TypeTick, tickPayload(&ev.Tick))
	}
	return nil, fmt.Errorf("unknown event kind %d", ev.Kind)
}

func tickPayload(t *modplay.Tick) protocol.Tick {
	vu := make([]float32, t.Channels)
	copy(vu, t.Levels())
	return protocol.Tick{
		Position:  t.Position,
		Row:       t.Row,
		Speed:     t.Speed,
		BPM:       t.BPM,
		EndOfSong: t.EndOfSong,
		VU:        vu,
	}
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(protocol.Message{Type: msgType, Payload: payload})
}

// broadcast hands data to every client; slow clients miss messages
func (h *Hub) broadcast(data []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.sendChan <- data:
		default:
			if h.config.Debug {
				log.Printf("[DEBUG] Client %s send buffer full, dropping message", c.ID)
			}
		}
	}
}

// broadcastState delivers a message that must not be lost. A client with a
// full buffer loses its oldest queued message instead.
func (h *Hub) broadcastState(data []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.sendChan <- data:
			continue
		default:
		}
		select {
		case <-c.sendChan:
		default:
		}
		select {
		case c.sendChan <- data:
		default:
			log.Printf("Client %s lost a state update", c.ID)
		}
	}
}

// handleWebSocket handles WebSocket connections
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.shutdownMu.RLock()
	if h.isShutdown {
		h.shutdownMu.RUnlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.shutdownMu.RUnlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New telemetry connection from %s", r.RemoteAddr)
	h.handleConnection(conn)
}

// handleConnection manages a client connection
func (h *Hub) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	client := &Client{
		ID:       uuid.New().String(),
		Conn:     conn,
		sendChan: make(chan []byte, clientQueueSize),
	}

	// Queue the greeting before registering so it is always first
	if err := h.greet(client); err != nil {
		log.Printf("Error sending hello: %v", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.clientWriter(client)
	}()

	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, client.ID)
		h.clientsMu.Unlock()
		close(client.sendChan)
		<-writerDone
		log.Printf("Telemetry client disconnected: %s", client.ID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		h.handleClientMessage(client, data)
	}
}

// greet queues hello, the current state and the current song
func (h *Hub) greet(client *Client) error {
	hello := protocol.Hello{
		HubID:    h.hubID,
		ClientID: client.ID,
		Name:     h.config.Name,
		Version:  protocol.Version,
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	}
	if err := h.sendMessage(client, protocol.TypeHello, hello); err != nil {
		return err
	}

	state := modplay.State(h.lastState.Load())
	h.lastMu.Lock()
	song := h.lastSong
	h.lastMu.Unlock()

	if err := h.sendMessage(client, protocol.TypeState, protocol.State{State: state.String()}); err != nil {
		return err
	}
	if song != nil {
		return h.sendMessage(client, protocol.TypeSong, *song)
	}
	return nil
}

// clientWriter sends messages to the client
func (h *Hub) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-client.sendChan:
			if !ok {
				return
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing message: %v", err)
				client.Conn.Close()
				drain(client.sendChan)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				client.Conn.Close()
				drain(client.sendChan)
				return
			}
		}
	}
}

// drain discards queued messages until the channel is closed
func drain(ch chan []byte) {
	for range ch {
	}
}

// handleClientMessage processes messages from clients
func (h *Hub) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		h.sendError(client, "invalid_message", err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeCommand:
		var cmd protocol.Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			h.sendError(client, "invalid_command", err.Error())
			return
		}
		if err := h.dispatch(cmd); err != nil {
			h.sendError(client, "command_failed", err.Error())
		}
	default:
		log.Printf("Unknown message type: %s", msg.Type)
		h.sendError(client, "unknown_type", msg.Type)
	}
}

// dispatch runs a remote command against the controller
func (h *Hub) dispatch(cmd protocol.Command) error {
	ctl := h.config.Controller
	if ctl == nil {
		return errors.New("telemetry feed is read-only")
	}

	log.Printf("Remote command: %s", cmd.Command)
	switch cmd.Command {
	case protocol.CommandPlay:
		return ctl.Play()
	case protocol.CommandPause:
		ctl.Pause()
	case protocol.CommandStop:
		ctl.Stop()
	case protocol.CommandRestart:
		return ctl.Restart()
	case protocol.CommandFilter:
		if cmd.Enabled == nil {
			return errors.New("filter command needs enabled")
		}
		ctl.SetFilter(*cmd.Enabled)
	case protocol.CommandLoop:
		if cmd.Enabled == nil {
			return errors.New("loop command needs enabled")
		}
		ctl.SetLoop(*cmd.Enabled)
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
	return nil
}

func (h *Hub) sendError(client *Client, code, message string) {
	if err := h.sendMessage(client, protocol.TypeError, protocol.Error{Error: code, Message: message}); err != nil {
		log.Printf("Error sending error to %s: %v", client.ID, err)
	}
}

// sendMessage queues a JSON message for one client
func (h *Hub) sendMessage(client *Client, msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}

	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
