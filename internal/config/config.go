package config

import (
	"fmt"
	"strings"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

const (
	// DefaultListenAddr is used when no explicit gRPC address is configured.
	DefaultListenAddr = "127.0.0.1:50051"
	DefaultLanguage   = "auto"
	DefaultLogLevel   = "info"
	// DefaultWindowMs matches the 30 s context Whisper models are trained on.
	DefaultWindowMs int64 = 30000
)

// Config captures bootstrap configuration extracted from environment
// variables, an inline payload (`WHISPER_BRIDGE_CONFIG`) or a YAML file
// (`WHISPER_BRIDGE_CONFIG_FILE`).
type Config struct {
	ListenAddr string
	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr   string
	ModelPath     string
	Language      string
	Translate     bool
	Threads       *int
	LogLevel      string
	WindowMs      int64
	UseStubEngine bool
}

// Validate applies defaults, checks required fields, and rejects out-of-range
// values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: log_level must be one of [debug, info, warn, error], got %q", c.LogLevel)
	}
	if c.WindowMs == 0 {
		c.WindowMs = DefaultWindowMs
	}
	if c.WindowMs <= window.Overlap {
		return fmt.Errorf("config: window_ms must be greater than the %d ms overlap, got %d", window.Overlap, c.WindowMs)
	}
	if c.Threads != nil && *c.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", *c.Threads)
	}
	return nil
}

// ThreadCount returns the configured thread count, or 0 for automatic.
func (c Config) ThreadCount() int {
	if c.Threads == nil {
		return 0
	}
	return *c.Threads
}
