//go:build !whisper_cpp

package engine

import (
	"context"
	"log/slog"
)

// NativeAvailable reports whether the native whisper backend is compiled in.
func NativeAvailable() bool { return false }

// NewNativeEngine returns an error when the native backend is not built.
func NewNativeEngine(modelPath string, opts Options, logger *slog.Logger) (Engine, error) {
	return nil, ErrNativeEngineUnavailable
}

// NativeEngine is a stub that satisfies the Engine interface when the native backend is absent.
type NativeEngine struct{}

func (e *NativeEngine) TranscribeWindow(ctx context.Context, w Window) (string, error) {
	return "", ErrNativeEngineUnavailable
}

func (e *NativeEngine) Close() error { return nil }
