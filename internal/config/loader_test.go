package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/config"
)

func TestLoaderDefaults(t *testing.T) {
	loader := config.Loader{Lookup: mapLookup(nil)}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ListenAddr != config.DefaultListenAddr {
		t.Fatalf("expected listen addr %q, got %q", config.DefaultListenAddr, cfg.ListenAddr)
	}
	if cfg.Language != config.DefaultLanguage {
		t.Fatalf("expected language %q, got %q", config.DefaultLanguage, cfg.Language)
	}
	if cfg.LogLevel != config.DefaultLogLevel {
		t.Fatalf("expected log level %q, got %q", config.DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.WindowMs != config.DefaultWindowMs {
		t.Fatalf("expected window %d, got %d", config.DefaultWindowMs, cfg.WindowMs)
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("expected metrics disabled, got %q", cfg.MetricsAddr)
	}
	if cfg.ModelPath != "" {
		t.Fatalf("expected empty model path, got %q", cfg.ModelPath)
	}
	if cfg.UseStubEngine || cfg.Translate {
		t.Fatalf("expected boolean flags disabled by default: %+v", cfg)
	}
	if cfg.Threads != nil {
		t.Fatalf("expected threads default (nil), got %v", *cfg.Threads)
	}
	if cfg.ThreadCount() != 0 {
		t.Fatalf("expected automatic thread count, got %d", cfg.ThreadCount())
	}
}

func TestLoaderOverrides(t *testing.T) {
	env := map[string]string{
		"WHISPER_BRIDGE_CONFIG":          `{"language":"pl","log_level":"debug","model_path":"/tmp/models/custom.gguf","use_stub_engine":false,"threads":4,"window_ms":20000}`,
		"WHISPER_BRIDGE_LISTEN_ADDR":     "0.0.0.0:6000",
		"WHISPER_BRIDGE_METRICS_ADDR":    ":9464",
		"WHISPER_BRIDGE_LOG_LEVEL":       "warn",
		"WHISPER_BRIDGE_LANGUAGE":        "fr",
		"WHISPER_BRIDGE_MODEL_PATH":      "/var/lib/whisper/ggml-medium-q5_0.gguf",
		"WHISPER_BRIDGE_TRANSLATE":       "true",
		"WHISPER_BRIDGE_USE_STUB_ENGINE": "true",
		"WHISPER_BRIDGE_THREADS":         "6",
		"WHISPER_BRIDGE_WINDOW_MS":       "15000",
	}

	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	assertEqual(t, "0.0.0.0:6000", cfg.ListenAddr, "listen addr")
	assertEqual(t, ":9464", cfg.MetricsAddr, "metrics addr")
	assertEqual(t, "fr", cfg.Language, "language")
	assertEqual(t, "warn", cfg.LogLevel, "log level")
	assertEqual(t, "/var/lib/whisper/ggml-medium-q5_0.gguf", cfg.ModelPath, "model path")
	assertBool(t, true, cfg.Translate, "translate")
	assertBool(t, true, cfg.UseStubEngine, "use stub engine")
	assertIntPtr(t, 6, cfg.Threads, "threads")
	if cfg.WindowMs != 15000 {
		t.Fatalf("unexpected window: want 15000, got %d", cfg.WindowMs)
	}
}

func TestLoaderReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	doc := strings.Join([]string{
		"listen_addr: 127.0.0.1:7000",
		"model_path: /models/ggml-large-v3-q5_0.gguf",
		"language: de",
		"translate: true",
		"threads: 2",
		"window_ms: 25000",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	env := map[string]string{
		"WHISPER_BRIDGE_CONFIG_FILE": path,
		"WHISPER_BRIDGE_CONFIG":      `{"language":"it"}`,
	}
	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	assertEqual(t, "127.0.0.1:7000", cfg.ListenAddr, "listen addr")
	assertEqual(t, "/models/ggml-large-v3-q5_0.gguf", cfg.ModelPath, "model path")
	assertEqual(t, "it", cfg.Language, "language")
	assertBool(t, true, cfg.Translate, "translate")
	assertIntPtr(t, 2, cfg.Threads, "threads")
	if cfg.WindowMs != 25000 {
		t.Fatalf("unexpected window: want 25000, got %d", cfg.WindowMs)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	env := map[string]string{"WHISPER_BRIDGE_CONFIG_FILE": "/nonexistent/bridge.yaml"}
	loader := config.Loader{
		Lookup:   mapLookup(env),
		ReadFile: func(string) ([]byte, error) { return nil, os.ErrNotExist },
	}
	_, err := loader.Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLoaderThreadsAuto(t *testing.T) {
	env := map[string]string{
		"WHISPER_BRIDGE_CONFIG": `{"threads":0}`,
	}

	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Threads != nil {
		t.Fatalf("expected threads nil when configured as 0, got %v", *cfg.Threads)
	}
}

func TestLoaderRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad payload", env: map[string]string{"WHISPER_BRIDGE_CONFIG": "listen_addr: [unclosed"}},
		{name: "bad bool", env: map[string]string{"WHISPER_BRIDGE_TRANSLATE": "maybe"}},
		{name: "bad threads", env: map[string]string{"WHISPER_BRIDGE_THREADS": "many"}},
		{name: "negative threads", env: map[string]string{"WHISPER_BRIDGE_THREADS": "-2"}},
		{name: "window within overlap", env: map[string]string{"WHISPER_BRIDGE_WINDOW_MS": "5000"}},
		{name: "bad window", env: map[string]string{"WHISPER_BRIDGE_WINDOW_MS": "ten"}},
		{name: "bad log level", env: map[string]string{"WHISPER_BRIDGE_LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := (config.Loader{Lookup: mapLookup(tt.env)}).Load(); err == nil {
				t.Fatalf("expected error for %v", tt.env)
			}
		})
	}
}

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func assertEqual(t *testing.T, want, got, label string) {
	t.Helper()
	if want != got {
		t.Fatalf("unexpected %s: want %q, got %q", label, want, got)
	}
}

func assertBool(t *testing.T, want, got bool, label string) {
	t.Helper()
	if want != got {
		t.Fatalf("unexpected %s: want %v, got %v", label, want, got)
	}
}

func assertIntPtr(t *testing.T, want int, got *int, label string) {
	t.Helper()
	if got == nil {
		t.Fatalf("unexpected %s: want %d, got nil", label, want)
	}
	if *got != want {
		t.Fatalf("unexpected %s: want %d, got %d", label, want, *got)
	}
}
