// ABOUTME: Entry point for the modplay tracker module player
// ABOUTME: Parses CLI flags over the config file and runs the player or a feed monitor
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/modplay-go/internal/app"
	"github.com/Resonate-Protocol/modplay-go/internal/client"
	"github.com/Resonate-Protocol/modplay-go/internal/config"
	"github.com/Resonate-Protocol/modplay-go/internal/discovery"
	"github.com/Resonate-Protocol/modplay-go/internal/version"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
)

var (
	configPath   = flag.String("config", "", "YAML config file (default: modplay.yaml if present)")
	sampleRate   = flag.Int("sample-rate", config.DefaultSampleRate, "Requested output sample rate")
	separation   = flag.String("separation", "narrow", "Stereo separation: off, narrow or mono")
	noLoop       = flag.Bool("no-loop", false, "Stop at the end of the song instead of restarting")
	filter       = flag.Bool("filter", false, "Enable the Amiga LED low-pass filter")
	amiga500     = flag.Bool("amiga500", false, "Use the Amiga 500 6 kHz fixed low-pass")
	watchFile    = flag.Bool("watch", false, "Reload the module when the file changes")
	telemetry    = flag.Bool("telemetry", false, "Serve a websocket telemetry feed")
	port         = flag.Int("port", config.DefaultTelemetryPort, "Telemetry port")
	name         = flag.String("name", "", "Player name for telemetry and mDNS (default: hostname-modplay)")
	noMDNS       = flag.Bool("no-mdns", false, "Do not advertise the telemetry feed via mDNS")
	discover     = flag.Bool("discover", false, "Find players on the network and monitor the first one")
	logFile      = flag.String("log-file", config.DefaultLogFile, "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	printVersion = flag.Bool("version", false, "Print version and exit")
)

const defaultConfigFile = "modplay.yaml"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <module.mod|.s3m|.xm>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *printVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	useTUI := !*noTUI && !*discover

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	playerName := cfg.Telemetry.Name
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-modplay", hostname)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *discover {
		monitor(sigChan)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	appConfig := app.Config{
		File:       flag.Arg(0),
		SampleRate: cfg.SampleRate,
		Separation: cfg.SeparationMode(),
		Loop:       cfg.LoopEnabled(),
		Filter:     cfg.Filter,
		Amiga500:   cfg.Amiga500,
		Watch:      cfg.Watch,
		Name:       playerName,
		EnableMDNS: cfg.Telemetry.MDNS,
		UseTUI:     useTUI,
	}
	if cfg.Telemetry.Enabled {
		appConfig.TelemetryAddr = fmt.Sprintf(":%d", cfg.Telemetry.Port)
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, appConfig.File)

	player, err := app.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}
	if err := player.Start(); err != nil {
		player.Stop()
		log.Fatalf("Failed to start player: %v", err)
	}

	select {
	case <-player.Finished():
		log.Printf("Playback finished")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	}

	player.Stop()
}

// loadConfig reads the config file and overlays flags given on the command line
func loadConfig() (config.Config, error) {
	path, optional := *configPath, false
	if path == "" {
		path, optional = defaultConfigFile, true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return cfg, err
	}

	var flagErr error
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "sample-rate":
			cfg.SampleRate = *sampleRate
		case "separation":
			if _, err := dsp.ParseSeparation(*separation); err != nil {
				flagErr = err
			}
			cfg.Separation = *separation
		case "no-loop":
			loop := !*noLoop
			cfg.Loop = &loop
		case "filter":
			cfg.Filter = *filter
		case "amiga500":
			cfg.Amiga500 = *amiga500
		case "watch":
			cfg.Watch = *watchFile
		case "telemetry":
			cfg.Telemetry.Enabled = *telemetry
		case "port":
			cfg.Telemetry.Port = *port
		case "name":
			cfg.Telemetry.Name = *name
		case "no-mdns":
			cfg.Telemetry.MDNS = !*noMDNS
		case "log-file":
			cfg.LogFile = *logFile
		}
	})
	if flagErr != nil {
		return cfg, flagErr
	}
	return cfg, cfg.Validate()
}

// monitor browses for players and streams the first one's telemetry to the log
func monitor(sigChan <-chan os.Signal) {
	log.Printf("Searching for players...")
	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()
	disc.Browse(5 * time.Second)

	var found *discovery.PlayerInfo
	select {
	case found = <-disc.Players():
	case <-time.After(5 * time.Second):
		log.Fatalf("No player found after 5 seconds")
	case <-sigChan:
		return
	}

	c := client.NewClient(client.Config{URL: found.URL()})
	if err := c.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer c.Close()

	for {
		select {
		case s := <-c.States:
			log.Printf("[%s] state: %s", found.Name, s.State)
		case song := <-c.Songs:
			log.Printf("[%s] song: %q (%s, %d channels)", found.Name, song.Title, song.Format, song.Channels)
		case tick := <-c.Ticks:
			log.Printf("[%s] order %d row %d speed %d bpm %d vu %v", found.Name, tick.Position, tick.Row, tick.Speed, tick.BPM, tick.VU)
		case <-c.Done():
			log.Printf("Player disconnected")
			return
		case <-sigChan:
			log.Printf("Shutdown signal received")
			return
		}
	}
}
