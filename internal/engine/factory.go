package engine

import (
	"errors"
	"log/slog"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/config"
)

// ErrNativeEngineUnavailable indicates that the whisper.cpp backend is not compiled in.
var ErrNativeEngineUnavailable = errors.New("engine: native backend unavailable")

const (
	KindStub   = "stub"
	KindNative = "whisper.cpp"
)

// NewOpener returns an Opener that builds engines according to cfg. The stub
// engine is used when forced by configuration, when the native backend is not
// compiled in, or when native initialisation fails.
func NewOpener(cfg config.Config, logger *slog.Logger) Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(modelPath string, opts Options) (Engine, error) {
		return open(cfg, modelPath, opts, logger)
	}
}

func open(cfg config.Config, modelPath string, opts Options, logger *slog.Logger) (Engine, error) {
	opts = resolveOptions(cfg, opts)

	if cfg.UseStubEngine {
		logger.Debug("stub engine forced by configuration", "model_path", modelPath)
		return NewStubEngine(logger, modelPath), nil
	}

	if !NativeAvailable() {
		logger.Warn("native backend disabled at build time; using stub engine", "model_path", modelPath)
		return NewStubEngine(logger, modelPath), nil
	}

	native, err := NewNativeEngine(modelPath, opts, logger)
	if err != nil {
		logger.Error("native engine initialisation failed; using stub", "error", err, "model_path", modelPath)
		return NewStubEngine(logger, modelPath), nil
	}
	logger.Info("native engine ready", "model_path", modelPath, "language", opts.Language)
	return native, nil
}

// resolveOptions fills unset per-session options from the daemon configuration.
func resolveOptions(cfg config.Config, opts Options) Options {
	opts.Language = normaliseLanguage(opts.Language, cfg.Language)
	if opts.Threads <= 0 {
		opts.Threads = cfg.ThreadCount()
	}
	if !opts.Translate {
		opts.Translate = cfg.Translate
	}
	return opts
}

// Kind names the backend behind e for logs and response metadata.
func Kind(e Engine) string {
	switch e.(type) {
	case *StubEngine:
		return KindStub
	case *NativeEngine:
		return KindNative
	default:
		return "custom"
	}
}
