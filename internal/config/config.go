// Package config manages process configuration for the producer and
// consumer binaries: loading from an INI file, environment variable
// overrides, and defaults for every setting, in a hand-rolled INI style
// with no third-party config library.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// Configuration struct
// =============================================================================

// Config holds the fixed process configuration set (host, data_port,
// status_port, width, height, fps, max_packet_size, buffer_capacity),
// plus the reassembly and gimbal tunables this project adds, plus the
// ambient logging/health settings carried regardless of which functional
// features are in scope.
type Config struct {
	// Process-level
	Host           string
	DataPort       int
	StatusPort     int
	Width          int
	Height         int
	FPS            int
	MaxPacketSize  int
	BufferCapacity int // consumer frame-buffer capacity; producer's raw buffer is fixed at 2

	// Reassembly tuning
	ReassemblyConcurrency   int
	ReassemblyIdleTimeoutMS int

	// Gimbal range overrides (defaults: x in [-90,90], y in [-90,40])
	GimbalMinX float64
	GimbalMaxX float64
	GimbalMinY float64
	GimbalMaxY float64
	GimbalXPin string
	GimbalYPin string

	// Camera device
	CameraDevice string
	CameraFormat string // "mjpeg" or "yuyv"

	// Logging
	LogLevel       string
	LogFile        string
	LogMaxBytes    int
	LogBackupCount int
	LogToStdout    bool

	// Health
	HealthLogIntervalSec float64

	// Metrics
	MetricsEnabled bool
	MetricsAddr    string
}

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a Config populated with the stated defaults
// (max_packet_size 1024, consumer buffer_capacity 60, reassembly
// concurrency 8 / idle timeout 500ms) plus this project's own ambient
// defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		DataPort:       9000,
		StatusPort:     9001,
		Width:          640,
		Height:         480,
		FPS:            15,
		MaxPacketSize:  1024,
		BufferCapacity: 60,

		ReassemblyConcurrency:   8,
		ReassemblyIdleTimeoutMS: 500,

		GimbalMinX: -90,
		GimbalMaxX: 90,
		GimbalMinY: -90,
		GimbalMaxY: 40,
		GimbalXPin: "GPIO12",
		GimbalYPin: "GPIO13",

		CameraDevice: "/dev/video0",
		CameraFormat: "mjpeg",

		LogLevel:       "INFO",
		LogFile:        "./logs/gimbalcam.log",
		LogMaxBytes:    5 * 1024 * 1024,
		LogBackupCount: 3,
		LogToStdout:    true,

		HealthLogIntervalSec: 30.0,

		MetricsEnabled: false,
		MetricsAddr:    ":2112",
	}
}

// =============================================================================
// INI parser (minimal, no external deps)
// =============================================================================

// iniData stores parsed INI sections and their key-value pairs.
type iniData map[string]map[string]string

// parseINI reads an INI file and returns its sections and key-value pairs.
// Supports comments (# and ;), sections ([name]), and key = value lines.
func parseINI(path string) (iniData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	result := make(iniData)
	currentSection := ""

	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(rawLine)

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if _, ok := result[currentSection]; !ok {
				result[currentSection] = make(map[string]string)
			}
			continue
		}

		if idx := strings.IndexByte(line, '='); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.TrimSpace(line[idx+1:])
			if currentSection != "" {
				result[currentSection][key] = value
			}
		}
	}

	return result, nil
}

func (d iniData) get(section, key string) (string, bool) {
	if sec, ok := d[section]; ok {
		if val, ok := sec[key]; ok {
			return val, true
		}
	}
	return "", false
}

func (d iniData) hasSection(section string) bool {
	_, ok := d[section]
	return ok
}

// =============================================================================
// Type parsing helpers
// =============================================================================

func asBool(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func asInt(value string, fallback int, minVal, maxVal *int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	if minVal != nil && parsed < *minVal {
		parsed = *minVal
	}
	if maxVal != nil && parsed > *maxVal {
		parsed = *maxVal
	}
	return parsed
}

func asFloat(value string, fallback float64, minVal, maxVal *float64) float64 {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	if minVal != nil && parsed < *minVal {
		parsed = *minVal
	}
	if maxVal != nil && parsed > *maxVal {
		parsed = *maxVal
	}
	return parsed
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// =============================================================================
// Load + Apply
// =============================================================================

// ConfigPath returns the INI file path to use, respecting env vars.
func ConfigPath() string {
	if p := os.Getenv("GIMBALCAM_CONFIG"); p != "" {
		return p
	}
	return "./config.ini"
}

// Load reads the INI file at the given path (or the default/env path)
// and returns a fully populated Config. Missing sections or keys fall
// back to DefaultConfig() values; a missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		ini, err := parseINI(path)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
		applyINI(cfg, ini)
	}

	if logFile := os.Getenv("GIMBALCAM_LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}
	if host := os.Getenv("GIMBALCAM_HOST"); host != "" {
		cfg.Host = host
	}

	return cfg, nil
}

// applyINI maps INI key-value pairs onto the Config struct.
func applyINI(cfg *Config, ini iniData) {
	if ini.hasSection("session") {
		if v, ok := ini.get("session", "host"); ok {
			cfg.Host = v
		}
		if v, ok := ini.get("session", "data_port"); ok {
			cfg.DataPort = asInt(v, cfg.DataPort, intPtr(1), intPtr(65535))
		}
		if v, ok := ini.get("session", "status_port"); ok {
			cfg.StatusPort = asInt(v, cfg.StatusPort, intPtr(1), intPtr(65535))
		}
		if v, ok := ini.get("session", "width"); ok {
			cfg.Width = asInt(v, cfg.Width, intPtr(16), intPtr(4096))
		}
		if v, ok := ini.get("session", "height"); ok {
			cfg.Height = asInt(v, cfg.Height, intPtr(16), intPtr(4096))
		}
		if v, ok := ini.get("session", "fps"); ok {
			cfg.FPS = asInt(v, cfg.FPS, intPtr(1), intPtr(120))
		}
		if v, ok := ini.get("session", "max_packet_size"); ok {
			cfg.MaxPacketSize = asInt(v, cfg.MaxPacketSize, intPtr(32), intPtr(65000))
		}
		if v, ok := ini.get("session", "buffer_capacity"); ok {
			cfg.BufferCapacity = asInt(v, cfg.BufferCapacity, intPtr(1), nil)
		}
	}

	if ini.hasSection("reassembly") {
		if v, ok := ini.get("reassembly", "concurrency"); ok {
			cfg.ReassemblyConcurrency = asInt(v, cfg.ReassemblyConcurrency, intPtr(1), intPtr(1000))
		}
		if v, ok := ini.get("reassembly", "idle_timeout_ms"); ok {
			cfg.ReassemblyIdleTimeoutMS = asInt(v, cfg.ReassemblyIdleTimeoutMS, intPtr(10), nil)
		}
	}

	if ini.hasSection("gimbal") {
		if v, ok := ini.get("gimbal", "min_x"); ok {
			cfg.GimbalMinX = asFloat(v, cfg.GimbalMinX, floatPtr(-180), floatPtr(180))
		}
		if v, ok := ini.get("gimbal", "max_x"); ok {
			cfg.GimbalMaxX = asFloat(v, cfg.GimbalMaxX, floatPtr(-180), floatPtr(180))
		}
		if v, ok := ini.get("gimbal", "min_y"); ok {
			cfg.GimbalMinY = asFloat(v, cfg.GimbalMinY, floatPtr(-180), floatPtr(180))
		}
		if v, ok := ini.get("gimbal", "max_y"); ok {
			cfg.GimbalMaxY = asFloat(v, cfg.GimbalMaxY, floatPtr(-180), floatPtr(180))
		}
		if v, ok := ini.get("gimbal", "x_pin"); ok {
			cfg.GimbalXPin = v
		}
		if v, ok := ini.get("gimbal", "y_pin"); ok {
			cfg.GimbalYPin = v
		}
	}

	if ini.hasSection("camera") {
		if v, ok := ini.get("camera", "device"); ok {
			cfg.CameraDevice = v
		}
		if v, ok := ini.get("camera", "format"); ok {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "mjpeg" || v == "yuyv" {
				cfg.CameraFormat = v
			}
		}
	}

	if ini.hasSection("logging") {
		if v, ok := ini.get("logging", "level"); ok {
			cfg.LogLevel = strings.ToUpper(strings.TrimSpace(v))
		}
		if v, ok := ini.get("logging", "file"); ok {
			cfg.LogFile = v
		}
		if v, ok := ini.get("logging", "max_bytes"); ok {
			cfg.LogMaxBytes = asInt(v, cfg.LogMaxBytes, intPtr(1024), nil)
		}
		if v, ok := ini.get("logging", "backup_count"); ok {
			cfg.LogBackupCount = asInt(v, cfg.LogBackupCount, intPtr(1), nil)
		}
		if v, ok := ini.get("logging", "stdout"); ok {
			cfg.LogToStdout = asBool(v, cfg.LogToStdout)
		}
	}

	if ini.hasSection("health") {
		if v, ok := ini.get("health", "log_interval_sec"); ok {
			cfg.HealthLogIntervalSec = asFloat(v, cfg.HealthLogIntervalSec, floatPtr(5.0), nil)
		}
	}

	if ini.hasSection("metrics") {
		if v, ok := ini.get("metrics", "enabled"); ok {
			cfg.MetricsEnabled = asBool(v, cfg.MetricsEnabled)
		}
		if v, ok := ini.get("metrics", "addr"); ok {
			cfg.MetricsAddr = v
		}
	}
}

// =============================================================================
// Validate
// =============================================================================

// Validate checks whether the Config values are reasonable. Returns
// ok=false for a max_packet_size too small to carry the 9-byte trailer
// plus any payload, a buffer capacity below 1, or a gimbal range whose
// minimum is not below its maximum on either axis. An unusually high fps
// only adds a warning.
func (c *Config) Validate() (ok bool, warnings []string) {
	ok = true

	if c.MaxPacketSize <= 9 {
		ok = false
		warnings = append(warnings, fmt.Sprintf("max_packet_size %d leaves no room for the 9-byte trailer", c.MaxPacketSize))
	}
	if c.BufferCapacity < 1 {
		ok = false
		warnings = append(warnings, "buffer_capacity must be at least 1")
	}
	if c.FPS > 60 {
		warnings = append(warnings, fmt.Sprintf("fps %d is unusually high for MJPEG capture", c.FPS))
	}
	if c.GimbalMinX >= c.GimbalMaxX || c.GimbalMinY >= c.GimbalMaxY {
		ok = false
		warnings = append(warnings, "gimbal min angle must be less than max angle on both axes")
	}

	return ok, warnings
}
