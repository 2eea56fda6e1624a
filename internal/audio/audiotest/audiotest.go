// Package audiotest writes WAV fixtures for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteTone writes a 16-bit PCM WAV containing a 440 Hz tone of the given
// length into dir and returns its path.
func WriteTone(tb testing.TB, dir string, sampleRate, channels int, durationMs int64) string {
	tb.Helper()

	path := filepath.Join(dir, "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	frames := int(durationMs * int64(sampleRate) / 1000)
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)) * 12000)
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		tb.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		tb.Fatalf("close wav encoder: %v", err)
	}
	return path
}
