package engine

import (
	"context"
	"log/slog"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

// StubEngine describes each window instead of invoking Whisper.
type StubEngine struct {
	log     *slog.Logger
	windows int
}

// NewStubEngine returns an Engine that generates placeholder transcripts.
func NewStubEngine(logger *slog.Logger, modelPath string) *StubEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubEngine{
		log: logger.With(
			"component", "engine.stub",
			"adapter", adapterinfo.Info.Slug,
			"model_path", modelPath,
		),
	}
}

// Close implements the Engine interface.
func (e *StubEngine) Close() error {
	return nil
}

// TranscribeWindow implements the Engine interface.
func (e *StubEngine) TranscribeWindow(ctx context.Context, w Window) (string, error) {
	e.windows++
	text := window.Describe(w.StartMs, w.EndMs)
	e.log.Debug("stub transcript",
		"start_ms", w.StartMs,
		"end_ms", w.EndMs,
		"context_tokens", len(w.Context),
		"windows", e.windows,
	)
	return text, nil
}
