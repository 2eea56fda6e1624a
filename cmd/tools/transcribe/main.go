package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/bridge"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/config"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/engine"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/transcribe"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

type output struct {
	transcribe.Transcript
	NormalizedText string           `json:"normalized_text"`
	Merged         []window.Segment `json:"merged_segments,omitempty"`
	Engine         string           `json:"engine"`
}

func main() {
	var (
		model      = flag.String("model", "", "model file, or a directory to search for one")
		audioPath  = flag.String("audio", "", "WAV file to transcribe")
		language   = flag.String("language", config.DefaultLanguage, "spoken language, or auto")
		translate  = flag.Bool("translate", false, "translate to English")
		threads    = flag.Int("threads", 0, "inference threads (0 = all CPUs)")
		windowMs   = flag.Int64("window", config.DefaultWindowMs, "window length in milliseconds")
		useStub    = flag.Bool("stub", false, "use the stub engine instead of whisper.cpp")
		mergeShort = flag.Int64("merge-short", 0, "merge consecutive segments shorter than this many milliseconds")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if strings.TrimSpace(*model) == "" || strings.TrimSpace(*audioPath) == "" {
		fmt.Fprintln(os.Stderr, "transcribe: --model and --audio are required")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Config{
		ListenAddr:    "-",
		Language:      *language,
		Translate:     *translate,
		Threads:       threads,
		WindowMs:      *windowMs,
		UseStubEngine: *useStub,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "transcribe: %v\n", err)
		os.Exit(2)
	}

	modelPath, err := transcribe.ResolveModel(*model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transcribe: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var kind string
	opener := engine.NewOpener(cfg, logger)
	sessions := bridge.New(func(path string, opts engine.Options) (engine.Engine, error) {
		e, err := opener(path, opts)
		if err == nil {
			kind = engine.Kind(e)
		}
		return e, err
	}, logger, nil)
	defer sessions.Close()

	tr, err := transcribe.New(sessions, logger).TranscribeFile(ctx, *audioPath, transcribe.Options{
		ModelPath: modelPath,
		Language:  cfg.Language,
		Translate: cfg.Translate,
		Threads:   cfg.ThreadCount(),
		WindowMs:  cfg.WindowMs,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "transcribe: %v\n", err)
		os.Exit(1)
	}

	out := output{
		Transcript:     tr,
		NormalizedText: tr.NormalizedText(),
		Engine:         kind,
	}
	if *mergeShort > 0 {
		out.Merged = tr.MergeShortSegments(*mergeShort)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "transcribe: encode output: %v\n", err)
		os.Exit(1)
	}
}
