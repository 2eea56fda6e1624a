//go:build whisper_cpp

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

func TestNativeEngineTranscribesFixture(t *testing.T) {
	engine := openTestNativeEngine(t)
	audioPath := locateFixture(t, filepath.Join("testdata", "test.wav"), "")

	ctx := context.Background()
	text, err := engine.TranscribeWindow(ctx, Window{AudioPath: audioPath, StartMs: 0, EndMs: 30000})
	if err != nil {
		t.Fatalf("TranscribeWindow: %v", err)
	}
	if strings.TrimSpace(text) == "" {
		t.Fatal("empty transcript")
	}
}

func TestNativeEngineSkipsTinyWindow(t *testing.T) {
	engine := openTestNativeEngine(t)
	audioPath := locateFixture(t, filepath.Join("testdata", "test.wav"), "")

	text, err := engine.TranscribeWindow(context.Background(), Window{AudioPath: audioPath, StartMs: 0, EndMs: 10})
	if err != nil {
		t.Fatalf("TranscribeWindow: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty transcript, got %q", text)
	}
}

func TestNativeEngineRespectsContextCancellation(t *testing.T) {
	engine := openTestNativeEngine(t)
	audioPath := locateFixture(t, filepath.Join("testdata", "test.wav"), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.TranscribeWindow(ctx, Window{AudioPath: audioPath, EndMs: window.Overlap})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestNewNativeEngineRejectsEmptyPath(t *testing.T) {
	if _, err := NewNativeEngine("", Options{}, nil); err == nil {
		t.Fatal("expected error for empty model path")
	}
}

func openTestNativeEngine(tb testing.TB) *NativeEngine {
	tb.Helper()

	modelRel := filepath.Join("testdata", "models", "ggml-base.en.bin")
	modelPath := locateFixture(tb, modelRel, "place a ggml model under testdata/models")
	eng, err := NewNativeEngine(modelPath, Options{Language: "en"}, nil)
	if err != nil {
		tb.Fatalf("NewNativeEngine: %v", err)
	}
	native, ok := eng.(*NativeEngine)
	if !ok {
		tb.Fatalf("unexpected engine type %T", eng)
	}
	tb.Cleanup(func() {
		if cerr := native.Close(); cerr != nil {
			tb.Errorf("engine.Close: %v", cerr)
		}
	})
	return native
}

func locateFixture(tb testing.TB, relativePath string, suggestion string) string {
	tb.Helper()

	wd, err := os.Getwd()
	if err != nil {
		tb.Fatalf("getwd: %v", err)
	}

	visited := make([]string, 0, 4)
	for {
		candidate := filepath.Join(wd, relativePath)
		visited = append(visited, candidate)

		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			tb.Fatalf("stat %s: %v", candidate, err)
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			msg := fmt.Sprintf("fixture %s not found (checked: %s)", relativePath, strings.Join(visited, ", "))
			if suggestion != "" {
				msg = fmt.Sprintf("%s; %s", msg, suggestion)
			}
			tb.Skip(msg)
		}
		wd = parent
	}
}
