//go:build whisper_cpp

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/audio"
)

// minWindowSamples skips windows shorter than ~100 ms, which whisper.cpp
// rejects.
const minWindowSamples = audio.WhisperSampleRate / 10

func NativeAvailable() bool { return true }

// NativeEngine runs whisper.cpp over the requested window of a WAV file.
type NativeEngine struct {
	mu      sync.Mutex
	inferMu sync.Mutex

	model whisperpkg.Model
	opts  Options
	log   *slog.Logger

	// Consecutive windows usually target the same recording.
	audioPath string
	samples   []float32
}

func NewNativeEngine(modelPath string, opts Options, logger *slog.Logger) (Engine, error) {
	if modelPath == "" {
		return nil, errors.New("engine: model path required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	model, err := whisperpkg.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("engine: load model %s: %w", modelPath, err)
	}
	opts.Language = normaliseLanguage(opts.Language, "")
	log := logger.With("component", "engine.native", "model_path", modelPath)
	log.Info("model loaded",
		"language", opts.Language,
		"translate", opts.Translate,
		"threads", opts.threadCount(),
		"multilingual", model.IsMultilingual(),
	)
	return &NativeEngine{
		model: model,
		opts:  opts,
		log:   log,
	}, nil
}

func (e *NativeEngine) TranscribeWindow(ctx context.Context, w Window) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	samples, err := e.load(w.AudioPath)
	if err != nil {
		return "", err
	}
	chunk := audio.SliceMs(samples, audio.WhisperSampleRate, w.StartMs, w.EndMs)
	if len(chunk) < minWindowSamples {
		e.log.Debug("skipping too-short window", "start_ms", w.StartMs, "end_ms", w.EndMs, "samples", len(chunk))
		return "", nil
	}

	e.inferMu.Lock()
	defer e.inferMu.Unlock()
	if e.model == nil {
		return "", errors.New("engine: native engine closed")
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("engine: create context: %w", err)
	}
	wctx.SetThreads(e.opts.threadCount())
	if err := wctx.SetLanguage(e.opts.Language); err != nil {
		e.log.Warn("language rejected by model; using auto", "language", e.opts.Language, "error", err)
		_ = wctx.SetLanguage("auto")
	}
	wctx.SetTranslate(e.opts.Translate)
	wctx.SetSplitOnWord(true)

	encoderBegin := func() bool { return !abortRequested(ctx) }
	if err := wctx.Process(chunk, encoderBegin, nil, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("engine: process window: %w", err)
	}

	var texts []string
	for {
		seg, err := wctx.NextSegment()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			e.log.Warn("error reading segment", "error", err)
			break
		}
		texts = append(texts, seg.Text)
	}

	text := joinSegments(texts)
	e.log.Debug("window transcribed",
		"start_ms", w.StartMs,
		"end_ms", w.EndMs,
		"segments", len(texts),
		"chars", len(text),
		"language", strings.TrimSpace(wctx.DetectedLanguage()),
	)
	return text, nil
}

func (e *NativeEngine) Close() error {
	e.inferMu.Lock()
	defer e.inferMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = nil
	e.audioPath = ""
	if e.model != nil {
		err := e.model.Close()
		e.model = nil
		return err
	}
	return nil
}

func (e *NativeEngine) load(path string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if path != "" && path == e.audioPath {
		return e.samples, nil
	}
	samples, err := audio.LoadMono16k(path)
	if err != nil {
		return nil, err
	}
	e.audioPath = path
	e.samples = samples
	return samples, nil
}
