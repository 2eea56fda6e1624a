// Package transcribe drives a bridge session across a whole recording,
// window by window, and stitches the overlapping results together.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/audio"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/bridge"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

// DefaultWindowMs is used when Options.WindowMs is zero.
const DefaultWindowMs int64 = 30000

// Sessions is the subset of *bridge.Bridge the driver needs.
type Sessions interface {
	Initialize(opts bridge.InitOptions) (bridge.Handle, error)
	Process(ctx context.Context, h bridge.Handle, req bridge.ProcessRequest) (window.Result, error)
	Release(h bridge.Handle) error
}

// Options configures a single file transcription.
type Options struct {
	ModelPath string
	Language  string
	Translate bool
	Threads   int
	WindowMs  int64
}

// Transcriber runs recordings through a session arena.
type Transcriber struct {
	sessions Sessions
	log      *slog.Logger
}

// New returns a Transcriber backed by sessions.
func New(sessions Sessions, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{
		sessions: sessions,
		log:      logger.With("component", "transcribe"),
	}
}

// TranscribeFile walks the WAV file at path in overlapping windows until the
// bridge reports completion, then returns the merged transcript. The session
// is always released.
func (t *Transcriber) TranscribeFile(ctx context.Context, path string, opts Options) (tr Transcript, err error) {
	windowMs := opts.WindowMs
	if windowMs == 0 {
		windowMs = DefaultWindowMs
	}
	if windowMs <= window.Overlap {
		return Transcript{}, fmt.Errorf("transcribe: window of %d ms must exceed the %d ms overlap", windowMs, window.Overlap)
	}

	info, err := audio.Probe(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcribe: probe %s: %w", path, err)
	}
	durationMs := info.DurationMs

	h, err := t.sessions.Initialize(bridge.InitOptions{
		ModelPath: opts.ModelPath,
		Language:  opts.Language,
		Translate: opts.Translate,
		Threads:   opts.Threads,
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("transcribe: initialize: %w", err)
	}
	defer func() {
		if rerr := t.sessions.Release(h); rerr != nil {
			err = errors.Join(err, fmt.Errorf("transcribe: release: %w", rerr))
		}
	}()

	tr = Transcript{
		ID:         uuid.NewString(),
		DurationMs: durationMs,
		Segments:   []window.Segment{},
	}
	log := t.log.With("transcript_id", tr.ID, "audio_path", path, "duration_ms", durationMs)
	log.Info("transcription started", "window_ms", windowMs, "sample_rate", info.SampleRate, "channels", info.Channels)

	var (
		text     strings.Builder
		offsetMs int64
		tokens   []string
	)
	maxWindows := max(int(durationMs/(windowMs-window.Overlap))+3, 1)
	for offsetMs < durationMs && tr.Windows < maxWindows {
		if err := ctx.Err(); err != nil {
			return Transcript{}, err
		}
		tr.Windows++

		res, err := t.sessions.Process(ctx, h, bridge.ProcessRequest{
			AudioPath:       path,
			OffsetMs:        offsetMs,
			WindowMs:        windowMs,
			TotalDurationMs: durationMs,
			Context:         tokens,
		})
		if err != nil {
			return Transcript{}, fmt.Errorf("transcribe: window %d at %d ms: %w", tr.Windows, offsetMs, err)
		}

		if chunk := strings.TrimSpace(res.Text); chunk != "" {
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(chunk)
		}
		tr.Segments = mergeSegments(tr.Segments, res.Segments)
		tokens = res.Context

		if res.Completed || res.NextOffsetMs <= offsetMs {
			break
		}
		offsetMs = min(res.NextOffsetMs, durationMs)
	}

	tr.Text = strings.TrimSpace(text.String())
	log.Info("transcription finished", "windows", tr.Windows, "segments", len(tr.Segments), "chars", len(tr.Text))
	return tr, nil
}

// mergeSegments appends newcomers that extend past the last kept segment.
// Starts are pulled back by at most one overlap so adjacent windows do not
// leave gaps.
func mergeSegments(existing []window.Segment, newcomers []window.Segment) []window.Segment {
	lastEnd := int64(-1)
	if n := len(existing); n > 0 {
		lastEnd = existing[n-1].End
	}
	for _, seg := range newcomers {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		start := max(seg.Start, 0)
		end := max(seg.End, start)
		if end <= lastEnd {
			continue
		}
		if lastEnd > 0 {
			start = max(start, lastEnd-window.Overlap)
		}
		existing = append(existing, window.Segment{Start: start, End: end, Text: text})
		lastEnd = end
	}
	return existing
}
