// Package bridge owns transcription sessions. Each session binds a model path
// to an engine and remembers the continuation context of its last window.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/engine"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/telemetry"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

var (
	// ErrResourceNotFound is returned when the model path does not reference an
	// existing file.
	ErrResourceNotFound = errors.New("bridge: resource not found")
	// ErrInvalidHandle is returned for the null handle and for handles that were
	// never issued or have been released.
	ErrInvalidHandle = errors.New("bridge: invalid handle")
)

// Handle identifies a session. The zero value is the null handle.
type Handle uint64

// NullHandle is never issued by Initialize.
const NullHandle Handle = 0

// InitOptions configures a new session.
type InitOptions struct {
	ModelPath string
	Language  string
	Translate bool
	Threads   int
}

// ProcessRequest asks for the next window of AudioPath.
type ProcessRequest struct {
	AudioPath       string
	OffsetMs        int64
	WindowMs        int64
	TotalDurationMs int64
	Context         []string
}

// SessionInfo is a read-only view of a live session.
type SessionInfo struct {
	Handle    Handle
	ModelPath string
	Engine    string
	Context   []string
}

type session struct {
	mu        sync.Mutex
	modelPath string
	engine    engine.Engine
	context   []string
	metrics   *telemetry.SessionMetrics
}

// Bridge is an arena of sessions indexed by handle.
type Bridge struct {
	open    engine.Opener
	log     *slog.Logger
	metrics *telemetry.Recorder

	mu       sync.Mutex
	last     Handle
	sessions map[Handle]*session
}

// New returns a Bridge that opens engines through open.
func New(open engine.Opener, logger *slog.Logger, metrics *telemetry.Recorder) *Bridge {
	if open == nil {
		panic("bridge: engine opener must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		open:     open,
		log:      logger.With("component", "bridge"),
		metrics:  metrics,
		sessions: make(map[Handle]*session),
	}
}

// Initialize allocates a session for the model at opts.ModelPath.
func (b *Bridge) Initialize(opts InitOptions) (Handle, error) {
	if opts.ModelPath == "" {
		return NullHandle, fmt.Errorf("%w: empty model path", ErrResourceNotFound)
	}
	info, err := os.Stat(opts.ModelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NullHandle, fmt.Errorf("%w: %s", ErrResourceNotFound, opts.ModelPath)
		}
		return NullHandle, fmt.Errorf("bridge: stat model %s: %w", opts.ModelPath, err)
	}
	if info.IsDir() {
		return NullHandle, fmt.Errorf("%w: %s is a directory", ErrResourceNotFound, opts.ModelPath)
	}

	eng, err := b.open(opts.ModelPath, engine.Options{
		Language:  opts.Language,
		Translate: opts.Translate,
		Threads:   opts.Threads,
	})
	if err != nil {
		return NullHandle, fmt.Errorf("bridge: open engine: %w", err)
	}

	kind := engine.Kind(eng)

	b.mu.Lock()
	b.last++
	h := b.last
	b.sessions[h] = &session{
		modelPath: opts.ModelPath,
		engine:    eng,
		context:   []string{},
		metrics:   b.metrics.StartSession(uint64(h), opts.ModelPath, kind),
	}
	b.mu.Unlock()

	b.log.Info("session initialised",
		"handle", uint64(h),
		"model_path", opts.ModelPath,
		"engine", kind,
		"language", opts.Language,
	)
	return h, nil
}

// Process plans the next window, asks the session engine for its text and
// stores the updated context in the session.
func (b *Bridge) Process(ctx context.Context, h Handle, req ProcessRequest) (window.Result, error) {
	s, err := b.lookup(h)
	if err != nil {
		return window.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		// Released while this call waited for the session lock.
		return window.Result{}, ErrInvalidHandle
	}

	plan := window.Compute(window.Request{
		OffsetMs: req.OffsetMs,
		LengthMs: req.WindowMs,
		TotalMs:  req.TotalDurationMs,
		Context:  req.Context,
	})

	started := time.Now()
	text, err := s.engine.TranscribeWindow(ctx, engine.Window{
		AudioPath: req.AudioPath,
		StartMs:   plan.StartMs,
		EndMs:     plan.EndMs,
		Context:   req.Context,
	})
	if err != nil {
		s.metrics.RecordFailure(err)
		return window.Result{}, fmt.Errorf("bridge: transcribe window %d-%d: %w", plan.StartMs, plan.EndMs, err)
	}

	s.context = slices.Clone(plan.Context)
	s.metrics.RecordWindow(plan.StartMs, plan.EndMs, plan.Completed, len(text), time.Since(started))
	return plan.Result(text), nil
}

// Release frees the session behind h. Releasing the null handle or a handle
// that is already gone is a no-op.
func (b *Bridge) Release(h Handle) error {
	if h == NullHandle {
		return nil
	}
	b.mu.Lock()
	s, ok := b.sessions[h]
	delete(b.sessions, h)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return b.closeSession(h, s)
}

// Session reports the state of a live session.
func (b *Bridge) Session(h Handle) (SessionInfo, error) {
	s, err := b.lookup(h)
	if err != nil {
		return SessionInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return SessionInfo{}, ErrInvalidHandle
	}
	return SessionInfo{
		Handle:    h,
		ModelPath: s.modelPath,
		Engine:    engine.Kind(s.engine),
		Context:   slices.Clone(s.context),
	}, nil
}

// Len returns the number of live sessions.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close releases every live session.
func (b *Bridge) Close() error {
	b.mu.Lock()
	sessions := b.sessions
	b.sessions = make(map[Handle]*session)
	b.mu.Unlock()

	var errs []error
	for h, s := range sessions {
		if err := b.closeSession(h, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bridge) lookup(h Handle) (*session, error) {
	if h == NullHandle {
		return nil, ErrInvalidHandle
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return s, nil
}

func (b *Bridge) closeSession(h Handle, s *session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.engine != nil {
		if cerr := s.engine.Close(); cerr != nil {
			err = fmt.Errorf("bridge: close engine for handle %d: %w", h, cerr)
		}
		s.engine = nil
	}
	s.context = nil
	s.metrics.Finish(err)
	b.log.Debug("session released", "handle", uint64(h))
	return err
}
