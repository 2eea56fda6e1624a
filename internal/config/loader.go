package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup and ReadFile to inject deterministic sources.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load retrieves the bridge configuration and validates it. Sources are
// applied in order: config file, inline payload, individual variables.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Config{
		ListenAddr: DefaultListenAddr,
	}

	if path, ok := l.Lookup("WHISPER_BRIDGE_CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		raw, err := l.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := applyPayload(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if raw, ok := l.Lookup("WHISPER_BRIDGE_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyPayload([]byte(raw), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode WHISPER_BRIDGE_CONFIG: %w", err)
		}
	}

	overrideString(l.Lookup, "WHISPER_BRIDGE_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "WHISPER_BRIDGE_METRICS_ADDR", &cfg.MetricsAddr)
	overrideString(l.Lookup, "WHISPER_BRIDGE_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "WHISPER_BRIDGE_MODEL_PATH", &cfg.ModelPath)
	overrideString(l.Lookup, "WHISPER_BRIDGE_LANGUAGE", &cfg.Language)
	if err := overrideBool(l.Lookup, "WHISPER_BRIDGE_TRANSLATE", &cfg.Translate); err != nil {
		return Config{}, err
	}
	if err := overrideBool(l.Lookup, "WHISPER_BRIDGE_USE_STUB_ENGINE", &cfg.UseStubEngine); err != nil {
		return Config{}, err
	}
	if err := overrideThreads(l.Lookup, "WHISPER_BRIDGE_THREADS", &cfg.Threads); err != nil {
		return Config{}, err
	}
	if value, ok := lookupTrimmed(l.Lookup, "WHISPER_BRIDGE_WINDOW_MS"); ok {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: WHISPER_BRIDGE_WINDOW_MS: %w", err)
		}
		cfg.WindowMs = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyPayload merges a YAML (or JSON) document into cfg.
func applyPayload(raw []byte, cfg *Config) error {
	type payloadConfig struct {
		ListenAddr    string `yaml:"listen_addr"`
		MetricsAddr   string `yaml:"metrics_addr"`
		ModelPath     string `yaml:"model_path"`
		Language      string `yaml:"language"`
		Translate     *bool  `yaml:"translate"`
		Threads       *int   `yaml:"threads"`
		LogLevel      string `yaml:"log_level"`
		WindowMs      int64  `yaml:"window_ms"`
		UseStubEngine *bool  `yaml:"use_stub_engine"`
	}
	var payload payloadConfig
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.ListenAddr != "" {
		cfg.ListenAddr = payload.ListenAddr
	}
	if payload.MetricsAddr != "" {
		cfg.MetricsAddr = payload.MetricsAddr
	}
	if payload.ModelPath != "" {
		cfg.ModelPath = payload.ModelPath
	}
	if payload.Language != "" {
		cfg.Language = payload.Language
	}
	if payload.Translate != nil {
		cfg.Translate = *payload.Translate
	}
	if payload.Threads != nil {
		cfg.Threads = threadsOrAuto(*payload.Threads)
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.WindowMs != 0 {
		cfg.WindowMs = payload.WindowMs
	}
	if payload.UseStubEngine != nil {
		cfg.UseStubEngine = *payload.UseStubEngine
	}
	return nil
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	if lookup == nil {
		return "", false
	}
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if target == nil {
		return
	}
	if value, ok := lookupTrimmed(lookup, key); ok {
		*target = value
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookupTrimmed(lookup, key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func overrideThreads(lookup func(string) (string, bool), key string, target **int) error {
	value, ok := lookupTrimmed(lookup, key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = threadsOrAuto(n)
	return nil
}

// threadsOrAuto maps 0 to nil so the engine picks the CPU count.
func threadsOrAuto(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
