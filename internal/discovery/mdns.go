// ABOUTME: mDNS service discovery for modplay telemetry feeds
// ABOUTME: Advertises this player's feed and browses for other players
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service advertised for telemetry feeds
const ServiceType = "_modplay._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string   // websocket path, advertised as path=<Path>
	Info        []string // extra TXT records
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	players chan *PlayerInfo
}

// PlayerInfo describes a discovered player
type PlayerInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the websocket URL of the player's telemetry feed
func (p *PlayerInfo) URL() string {
	return fmt.Sprintf("ws://%s:%d%s", p.Host, p.Port, p.Path)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	if config.Path == "" {
		config.Path = "/telemetry"
	}

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		players: make(chan *PlayerInfo, 10),
	}
}

// txtRecords builds the TXT records for the advertised service
func (m *Manager) txtRecords() []string {
	return append([]string{"path=" + m.config.Path}, m.config.Info...)
}

// Advertise advertises this player's telemetry feed via mDNS
func (m *Manager) Advertise() error {
	if m.config.Port <= 0 {
		return fmt.Errorf("invalid port %d", m.config.Port)
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse runs one query for timeout and delivers results on Players.
// The channel is not closed; the caller stops reading after timeout.
func (m *Manager) Browse(timeout time.Duration) {
	entries := make(chan *mdns.ServiceEntry, 10)

	go func() {
		for entry := range entries {
			player := entryToPlayer(entry)
			log.Printf("Discovered player: %s at %s:%d", player.Name, player.Host, player.Port)

			select {
			case m.players <- player:
			case <-m.ctx.Done():
				return
			}
		}
	}()

	go func() {
		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: timeout,
			Entries: entries,
		}
		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
	}()
}

func entryToPlayer(entry *mdns.ServiceEntry) *PlayerInfo {
	p := &PlayerInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Port: entry.Port,
		Path: "/",
	}
	if entry.AddrV4 != nil {
		p.Host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		p.Host = "[" + entry.AddrV6.String() + "]"
	} else {
		p.Host = entry.Host
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok {
			p.Path = path
		}
	}
	return p
}

// Players returns the channel of discovered players
func (m *Manager) Players() <-chan *PlayerInfo {
	return m.players
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
