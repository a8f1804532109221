// ABOUTME: Player configuration file support
// ABOUTME: Loads YAML settings and fills defaults for the CLI
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSampleRate    = 44100
	DefaultTelemetryPort = 8928
	DefaultLogFile       = "modplay.log"
)

// Config holds player settings read from a YAML file
type Config struct {
	SampleRate int    `yaml:"sample_rate"`
	Separation string `yaml:"separation"`
	Loop       *bool  `yaml:"loop"`
	Filter     bool   `yaml:"filter"`
	Amiga500   bool   `yaml:"amiga500"`
	Watch      bool   `yaml:"watch"`
	LogFile    string `yaml:"log_file"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig controls the websocket feed and its mDNS advertisement
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	MDNS    bool   `yaml:"mdns"`
}

// Default returns the built-in settings
func Default() Config {
	loop := true
	return Config{
		SampleRate: DefaultSampleRate,
		Separation: dsp.SeparationNarrow.String(),
		Loop:       &loop,
		LogFile:    DefaultLogFile,
		Telemetry: TelemetryConfig{
			Port: DefaultTelemetryPort,
			MDNS: true,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Telemetry.Port == 0 {
		cfg.Telemetry.Port = DefaultTelemetryPort
	}
	if cfg.Loop == nil {
		loop := true
		cfg.Loop = &loop
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.SampleRate < 0 {
		return fmt.Errorf("config: invalid sample_rate %d", c.SampleRate)
	}
	if _, err := dsp.ParseSeparation(c.Separation); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Telemetry.Port < 0 || c.Telemetry.Port > 65535 {
		return fmt.Errorf("config: invalid telemetry port %d", c.Telemetry.Port)
	}
	return nil
}

// SeparationMode returns the parsed stereo separation, narrow if invalid
func (c Config) SeparationMode() dsp.Separation {
	mode, err := dsp.ParseSeparation(c.Separation)
	if err != nil {
		return dsp.SeparationNarrow
	}
	return mode
}

// LoopEnabled reports whether songs restart at the end
func (c Config) LoopEnabled() bool {
	return c.Loop == nil || *c.Loop
}
