package engine

import "context"

// Engine produces transcription text for a time window of audio. The
// windowing and continuation logic lives in the bridge; implementations only
// turn a window into text.
type Engine interface {
	// TranscribeWindow returns the text spoken within the window.
	TranscribeWindow(ctx context.Context, w Window) (string, error)
	// Close releases underlying resources.
	Close() error
}

// Window identifies the slice of audio to transcribe.
type Window struct {
	AudioPath string
	StartMs   int64
	EndMs     int64
	// Context carries the continuation tokens of the previous window.
	Context []string
}

// Opener creates an Engine bound to a model file.
type Opener func(modelPath string, opts Options) (Engine, error)
