// ABOUTME: Tests for YAML configuration loading
// ABOUTME: Covers defaults, overrides, validation and missing files
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.SampleRate != DefaultSampleRate {
		t.Errorf("expected sample rate %d, got %d", DefaultSampleRate, cfg.SampleRate)
	}
	if !cfg.LoopEnabled() {
		t.Error("expected loop enabled by default")
	}
	if cfg.SeparationMode() != dsp.SeparationNarrow {
		t.Errorf("expected narrow separation, got %v", cfg.SeparationMode())
	}
	if cfg.Telemetry.Enabled {
		t.Error("expected telemetry disabled by default")
	}
	if cfg.Telemetry.Port != DefaultTelemetryPort {
		t.Errorf("expected telemetry port %d, got %d", DefaultTelemetryPort, cfg.Telemetry.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
sample_rate: 48000
separation: mono
loop: false
filter: true
amiga500: true
watch: true
log_file: /tmp/modplay.log
telemetry:
  enabled: true
  port: 9000
  name: living-room
  mdns: false
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.SampleRate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", cfg.SampleRate)
	}
	if cfg.SeparationMode() != dsp.SeparationMono {
		t.Errorf("expected mono, got %v", cfg.SeparationMode())
	}
	if cfg.LoopEnabled() {
		t.Error("expected loop disabled")
	}
	if !cfg.Filter || !cfg.Amiga500 || !cfg.Watch {
		t.Errorf("expected filter, amiga500 and watch set: %+v", cfg)
	}
	if cfg.LogFile != "/tmp/modplay.log" {
		t.Errorf("unexpected log file %q", cfg.LogFile)
	}
	want := TelemetryConfig{Enabled: true, Port: 9000, Name: "living-room", MDNS: false}
	if cfg.Telemetry != want {
		t.Errorf("expected telemetry %+v, got %+v", want, cfg.Telemetry)
	}
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("filter: true\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !cfg.Filter {
		t.Error("expected filter set")
	}
	if cfg.SampleRate != DefaultSampleRate {
		t.Errorf("expected default sample rate, got %d", cfg.SampleRate)
	}
	if !cfg.LoopEnabled() {
		t.Error("expected loop to stay enabled")
	}
	if !cfg.Telemetry.MDNS {
		t.Error("expected mdns to stay enabled")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "sample_rate: [1, 2"},
		{"negative rate", "sample_rate: -1"},
		{"bad separation", "separation: wide"},
		{"bad port", "telemetry:\n  port: 70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modplay.yaml")
	if err := os.WriteFile(path, []byte("sample_rate: 22050\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SampleRate != 22050 {
		t.Errorf("expected 22050, got %d", cfg.SampleRate)
	}
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := Load(missing, false); err == nil {
		t.Error("expected error for missing required file")
	}

	cfg, err := Load(missing, true)
	if err != nil {
		t.Fatalf("optional missing file should not fail: %v", err)
	}
	if cfg.SampleRate != DefaultSampleRate {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	if _, err := Load("", false); err != nil {
		t.Errorf("empty path should return defaults: %v", err)
	}
}
