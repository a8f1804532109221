// ABOUTME: Tests for the telemetry WebSocket client
// ABOUTME: Connects to a live hub and checks message routing and commands
package client

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/modplay-go/internal/protocol"
	"github.com/Resonate-Protocol/modplay-go/internal/telemetry"
	"github.com/Resonate-Protocol/modplay-go/pkg/modplay"
)

type loopController struct {
	loop chan bool
}

func (c *loopController) Play() error       { return nil }
func (c *loopController) Pause()            {}
func (c *loopController) Stop()             {}
func (c *loopController) Restart() error    { return nil }
func (c *loopController) SetFilter(on bool) {}
func (c *loopController) SetLoop(loop bool) { c.loop <- loop }

func startHub(t *testing.T, ctl telemetry.Controller) (*telemetry.Hub, string) {
	t.Helper()
	hub := telemetry.New(telemetry.Config{Name: "hub", Controller: ctl})
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + telemetry.DefaultPath
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{URL: "ws://localhost:8928/telemetry"})
	if client == nil {
		t.Fatal("expected client to be created")
	}
	if client.config.URL != "ws://localhost:8928/telemetry" {
		t.Errorf("unexpected url %s", client.config.URL)
	}
	if client.IsConnected() {
		t.Error("expected not connected before Connect")
	}
	if err := client.SendCommand(protocol.Command{Command: protocol.CommandPlay}); err == nil {
		t.Error("expected error sending while disconnected")
	}
}

func TestConnectFails(t *testing.T) {
	client := NewClient(Config{URL: "ws://127.0.0.1:1/telemetry"})
	if err := client.Connect(); err == nil {
		t.Error("expected dial error")
	}
}

func TestClientReceivesEvents(t *testing.T) {
	hub, url := startHub(t, nil)

	client := NewClient(Config{URL: url})
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	if got := client.Hello().HubID; got != hub.ID() {
		t.Errorf("expected hub id %s, got %s", hub.ID(), got)
	}

	select {
	case s := <-client.States:
		if s.State != "empty" {
			t.Errorf("expected greeting state empty, got %s", s.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no greeting state")
	}

	hub.Publish(modplay.Event{Kind: modplay.EventState, State: modplay.StatePaused})
	select {
	case s := <-client.States:
		if s.State != "paused" {
			t.Errorf("expected paused, got %s", s.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no state event")
	}

	ev := modplay.Event{Kind: modplay.EventTick}
	ev.Tick.Row = 3
	ev.Tick.Channels = 1
	hub.Publish(ev)
	select {
	case tick := <-client.Ticks:
		if tick.Row != 3 || len(tick.VU) != 1 {
			t.Errorf("unexpected tick %+v", tick)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick event")
	}

	hub.SetSong(protocol.Song{Title: "demo"})
	select {
	case song := <-client.Songs:
		if song.Title != "demo" {
			t.Errorf("unexpected song %+v", song)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no song event")
	}
}

func TestClientSendsCommand(t *testing.T) {
	ctl := &loopController{loop: make(chan bool, 1)}
	_, url := startHub(t, ctl)

	client := NewClient(Config{URL: url})
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	off := false
	if err := client.SendCommand(protocol.Command{Command: protocol.CommandLoop, Enabled: &off}); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}

	select {
	case loop := <-ctl.loop:
		if loop {
			t.Error("expected loop off")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command not received")
	}
}

func TestClientDoneAfterHubStops(t *testing.T) {
	hub, url := startHub(t, nil)

	client := NewClient(Config{URL: url})
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	hub.Stop()

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the hub stopping")
	}
	if client.IsConnected() {
		t.Error("expected disconnected")
	}
}

func TestHandleErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    protocol.Error
		deliver bool
	}{
		{
			name:    "valid",
			data:    `{"type":"hub/error","payload":{"error":"bad_command","message":"unknown command"}}`,
			want:    protocol.Error{Error: "bad_command", Message: "unknown command"},
			deliver: true,
		},
		{
			name: "payload not an object",
			data: `{"type":"hub/error","payload":"oops"}`,
		},
		{
			name: "wrong field types",
			data: `{"type":"hub/error","payload":{"error":42,"message":true}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(Config{URL: "ws://localhost:8928/telemetry"})
			defer client.cancel()

			client.handleJSONMessage([]byte(tt.data))

			select {
			case e := <-client.Errors:
				if !tt.deliver {
					t.Fatalf("expected malformed payload to be dropped, got %+v", e)
				}
				if e != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, e)
				}
			default:
				if tt.deliver {
					t.Fatal("expected error to be delivered")
				}
			}
		})
	}
}
