package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/bridge"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/config"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

// Sessions is the session arena served over gRPC. *bridge.Bridge implements it.
type Sessions interface {
	Initialize(opts bridge.InitOptions) (bridge.Handle, error)
	Process(ctx context.Context, h bridge.Handle, req bridge.ProcessRequest) (window.Result, error)
	Release(h bridge.Handle) error
	Session(h bridge.Handle) (bridge.SessionInfo, error)
}

// Server implements WindowedTranscriptionServer on top of a session arena.
type Server struct {
	cfg      config.Config
	log      *slog.Logger
	sessions Sessions
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, sessions Sessions) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		panic("server: sessions must not be nil")
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"language", cfg.Language,
		),
		sessions: sessions,
	}
}

// Initialize opens a session. An empty model path falls back to the
// configured default model.
func (s *Server) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error) {
	opts := bridge.InitOptions{
		ModelPath: req.ModelPath,
		Language:  req.Language,
		Translate: req.Translate,
		Threads:   req.Threads,
	}
	if opts.ModelPath == "" {
		opts.ModelPath = s.cfg.ModelPath
	}
	if opts.Language == "" {
		opts.Language = s.cfg.Language
	}

	h, err := s.sessions.Initialize(opts)
	if err != nil {
		s.log.Warn("initialize failed", "model_path", opts.ModelPath, "error", err)
		return nil, toStatus(err)
	}
	info, err := s.sessions.Session(h)
	if err != nil {
		return nil, toStatus(err)
	}
	s.setHeader(ctx, info.Engine, opts.Language)
	return &InitializeResponse{Handle: uint64(h), Engine: info.Engine}, nil
}

// Process plans and transcribes the next window of a session.
func (s *Server) Process(ctx context.Context, req *ProcessRequest) (*ProcessResponse, error) {
	h := bridge.Handle(req.Handle)
	res, err := s.sessions.Process(ctx, h, bridge.ProcessRequest{
		AudioPath:       req.AudioPath,
		OffsetMs:        req.OffsetMs,
		WindowMs:        req.WindowMs,
		TotalDurationMs: req.TotalDurationMs,
		Context:         req.Context,
	})
	if err != nil {
		s.log.Warn("process failed", "handle", req.Handle, "offset_ms", req.OffsetMs, "error", err)
		return nil, toStatus(err)
	}
	if info, err := s.sessions.Session(h); err == nil {
		s.setHeader(ctx, info.Engine, s.cfg.Language)
	}
	return &res, nil
}

// Release frees a session. Unknown handles are accepted.
func (s *Server) Release(ctx context.Context, req *ReleaseRequest) (*ReleaseResponse, error) {
	if err := s.sessions.Release(bridge.Handle(req.Handle)); err != nil {
		s.log.Error("release failed", "handle", req.Handle, "error", err)
		return nil, toStatus(err)
	}
	return &ReleaseResponse{}, nil
}

func (s *Server) setHeader(ctx context.Context, engine, language string) {
	md := metadata.New(adapterinfo.TranscriptMetadata(engine, language))
	if err := grpc.SetHeader(ctx, md); err != nil {
		s.log.Debug("unable to set response header", "error", err)
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, bridge.ErrResourceNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, bridge.ErrInvalidHandle):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
