package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxPacketSize != 1024 {
		t.Errorf("MaxPacketSize = %d, want 1024", cfg.MaxPacketSize)
	}
	if cfg.BufferCapacity != 60 {
		t.Errorf("BufferCapacity = %d, want 60", cfg.BufferCapacity)
	}
	if cfg.ReassemblyConcurrency != 8 {
		t.Errorf("ReassemblyConcurrency = %d, want 8", cfg.ReassemblyConcurrency)
	}
	if cfg.ReassemblyIdleTimeoutMS != 500 {
		t.Errorf("ReassemblyIdleTimeoutMS = %d, want 500", cfg.ReassemblyIdleTimeoutMS)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != DefaultConfig().Host {
		t.Errorf("Host = %q, want default", cfg.Host)
	}
}

func TestLoadAppliesINIOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	ini := `
[session]
host = 192.168.1.50
data_port = 9100
width = 1280
height = 720
fps = 30
max_packet_size = 2048
buffer_capacity = 30

[reassembly]
concurrency = 4
idle_timeout_ms = 250

[gimbal]
min_x = -45
max_x = 45

[camera]
device = /dev/video1
format = yuyv

[logging]
level = debug
stdout = false
`
	if err := os.WriteFile(path, []byte(ini), 0o644); err != nil {
		t.Fatalf("write ini: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "192.168.1.50" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.DataPort != 9100 {
		t.Errorf("DataPort = %d", cfg.DataPort)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("Width/Height = %d/%d", cfg.Width, cfg.Height)
	}
	if cfg.MaxPacketSize != 2048 {
		t.Errorf("MaxPacketSize = %d", cfg.MaxPacketSize)
	}
	if cfg.BufferCapacity != 30 {
		t.Errorf("BufferCapacity = %d", cfg.BufferCapacity)
	}
	if cfg.ReassemblyConcurrency != 4 {
		t.Errorf("ReassemblyConcurrency = %d", cfg.ReassemblyConcurrency)
	}
	if cfg.ReassemblyIdleTimeoutMS != 250 {
		t.Errorf("ReassemblyIdleTimeoutMS = %d", cfg.ReassemblyIdleTimeoutMS)
	}
	if cfg.GimbalMinX != -45 || cfg.GimbalMaxX != 45 {
		t.Errorf("GimbalMinX/MaxX = %v/%v", cfg.GimbalMinX, cfg.GimbalMaxX)
	}
	if cfg.CameraDevice != "/dev/video1" || cfg.CameraFormat != "yuyv" {
		t.Errorf("CameraDevice/Format = %q/%q", cfg.CameraDevice, cfg.CameraFormat)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.LogToStdout {
		t.Error("LogToStdout should be false")
	}
}

func TestAsIntClampsToBounds(t *testing.T) {
	min, max := 10, 20
	if got := asInt("5", 0, &min, &max); got != 10 {
		t.Errorf("asInt below min = %d, want 10", got)
	}
	if got := asInt("25", 0, &min, &max); got != 20 {
		t.Errorf("asInt above max = %d, want 20", got)
	}
	if got := asInt("15", 0, &min, &max); got != 15 {
		t.Errorf("asInt within bounds = %d, want 15", got)
	}
	if got := asInt("not-a-number", 42, &min, &max); got != 42 {
		t.Errorf("asInt invalid = %d, want fallback 42", got)
	}
}

func TestAsBool(t *testing.T) {
	cases := map[string]bool{
		"true": true, "1": true, "yes": true, "on": true,
		"false": false, "0": false, "no": false, "off": false,
	}
	for input, want := range cases {
		if got := asBool(input, !want); got != want {
			t.Errorf("asBool(%q) = %v, want %v", input, got, want)
		}
	}
	if got := asBool("", true); !got {
		t.Error("asBool(\"\") should return fallback")
	}
}

func TestValidateRejectsPacketSizeTooSmallForTrailer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPacketSize = 5
	if ok, _ := cfg.Validate(); ok {
		t.Error("Validate() should reject max_packet_size smaller than the trailer")
	}
}

func TestValidateRejectsInvertedGimbalRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GimbalMinX = 10
	cfg.GimbalMaxX = 5
	if ok, _ := cfg.Validate(); ok {
		t.Error("Validate() should reject min_x >= max_x")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if ok, warnings := cfg.Validate(); !ok {
		t.Errorf("Validate() on defaults = false, warnings: %v", warnings)
	}
}
