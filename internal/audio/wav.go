// Package audio probes and decodes WAV recordings handed to the bridge.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// WhisperSampleRate is the rate Whisper models expect.
const WhisperSampleRate = 16000

// ErrInvalidWAV reports a file whose RIFF/WAVE headers cannot be read.
var ErrInvalidWAV = errors.New("audio: invalid wav file")

// Info summarises a WAV file without decoding its samples.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	DurationMs int64
}

// Probe reads the WAV headers at path and derives the duration from the
// size of the PCM chunk.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrInvalidWAV, path, err)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrInvalidWAV, path, err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if info.SampleRate == 0 || info.Channels == 0 {
		return Info{}, fmt.Errorf("%w: %s: missing fmt chunk", ErrInvalidWAV, path)
	}
	bytesPerSample := int64(info.BitDepth / 8)
	if bytesPerSample > 0 && info.Channels > 0 && info.SampleRate > 0 {
		samples := dec.PCMLen() / (int64(info.Channels) * bytesPerSample)
		info.DurationMs = samples * 1000 / int64(info.SampleRate)
	}
	return info, nil
}

// LoadMono16k decodes the WAV at path into mono float32 samples at the
// Whisper sample rate.
func LoadMono16k(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: read %s: %w", path, err)
	}
	samples, rate, channels, err := DecodeWAVToFloat32(data)
	if err != nil {
		return nil, err
	}
	return ResampleLinear(Downmix(samples, channels), rate, WhisperSampleRate), nil
}

// DecodeWAVToFloat32 decodes a WAV blob into interleaved 32-bit float PCM
// samples and reports the sample rate and channel count.
func DecodeWAVToFloat32(b []byte) ([]float32, int, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		return nil, 0, 0, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, 0, fmt.Errorf("audio: decode pcm: %w", err)
	}
	if buf == nil {
		return nil, 0, 0, errors.New("audio: empty wav buffer")
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	sr := int(dec.SampleRate)
	if sr == 0 && buf.Format != nil {
		sr = buf.Format.SampleRate
	}
	if sr == 0 {
		sr = WhisperSampleRate
	}
	channels := int(dec.NumChans)
	if channels == 0 && buf.Format != nil {
		channels = buf.Format.NumChannels
	}
	if channels == 0 {
		channels = 1
	}
	return out, sr, channels, nil
}

// DecodePCM16LEToFloat32 converts little-endian PCM16 bytes into float32 samples.
func DecodePCM16LEToFloat32(b []byte) ([]float32, error) {
	if len(b)%2 != 0 {
		return nil, errors.New("audio: pcm16 length must be even")
	}
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}

// Downmix averages interleaved channels into a mono signal.
func Downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	out := make([]float32, len(samples)/channels)
	for i := range out {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// ResampleLinear resamples PCM32F from inRate to outRate using linear interpolation.
func ResampleLinear(samples []float32, inRate, outRate int) []float32 {
	if inRate <= 0 || outRate <= 0 || inRate == outRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := int(float64(len(samples)) * ratio)
	if outLen <= 1 {
		outLen = 1
	}
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) / ratio
		i0 := int(srcPos)
		if i0 >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(srcPos - float64(i0))
		s0 := samples[i0]
		s1 := samples[i0+1]
		out[i] = s0 + (s1-s0)*frac
	}
	return out
}

// SliceMs returns the samples covering [startMs, endMs) at the given rate,
// clamped to the available audio.
func SliceMs(samples []float32, rate int, startMs, endMs int64) []float32 {
	from := clampIndex(startMs*int64(rate)/1000, len(samples))
	to := clampIndex(endMs*int64(rate)/1000, len(samples))
	if to < from {
		to = from
	}
	return samples[from:to]
}

func clampIndex(i int64, n int) int {
	if i < 0 {
		return 0
	}
	if i > int64(n) {
		return n
	}
	return int(i)
}
