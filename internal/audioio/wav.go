// Package audioio implements the concrete external collaborators
// syncfinder only consumes through interfaces: WAV (and Opus-packet)
// sample buffer loading and an algo-fft-backed FFTAnalyzer. Grounded on
// internal/fitcommon/wav.go (ReadWAVMono/WriteMonoWAV/WriteStereoWAVLR),
// generalized to keep every channel in the interleaved layout
// syncfinder.WavData and FFTAnalyzer need instead of collapsing straight to
// mono.
package audioio

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/cwbudde/syncfinder/syncfinder"
)

// Buffer is the concrete syncfinder.WavData backed by an in-memory
// interleaved float32 sample buffer.
type Buffer struct {
	nChannels int
	samples   []float32
}

// NewBuffer wraps an existing interleaved sample buffer. samples is taken
// by reference, not copied.
func NewBuffer(nChannels int, samples []float32) *Buffer {
	return &Buffer{nChannels: nChannels, samples: samples}
}

func (b *Buffer) NChannels() int      { return b.nChannels }
func (b *Buffer) NValues() int        { return len(b.samples) }
func (b *Buffer) Samples() []float32  { return b.samples }

var _ syncfinder.WavData = (*Buffer)(nil)

// LoadWAV reads path into a Buffer, preserving its native channel count and
// sample rate (sampleRate is returned for callers that need it, e.g. to
// resample before search). Grounded on internal/fitcommon/wav.go's
// ReadWAVMono, generalized past mono downmixing.
func LoadWAV(path string) (*Buffer, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audioio: open %s: %w", path, err)
	}
	defer f.Close()

	return DecodeWAV(f)
}

// DecodeWAV decodes a WAV stream from r, e.g. an in-memory
// bytes.NewReader over a network-delivered payload, without touching the
// filesystem.
func DecodeWAV(r io.Reader) (*Buffer, int, error) {
	ra, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, 0, fmt.Errorf("audioio: wav decoder requires a seekable reader")
	}

	dec := wav.NewDecoder(ra)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("audioio: invalid wav stream")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audioio: decode wav stream: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("audioio: invalid wav buffer")
	}
	if len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("audioio: %w", syncfinder.ErrEmptyBuffer)
	}

	samples := make([]float32, len(buf.Data))
	maxAmp := buf.SourceBitDepth
	if maxAmp <= 0 {
		maxAmp = 16
	}
	scale := float32(1) / float32(int(1)<<(uint(maxAmp)-1))
	for i, v := range buf.Data {
		samples[i] = float32(v) * scale
	}

	return NewBuffer(buf.Format.NumChannels, samples), buf.Format.SampleRate, nil
}

// WriteWAV writes an interleaved float32 buffer out as a 16-bit PCM WAV,
// mirroring internal/fitcommon/wav.go's WriteStereoInterleavedWAV /
// WriteMonoWAV for an arbitrary channel count.
func WriteWAV(path string, samples []float32, nChannels int, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audioio: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, nChannels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: nChannels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}
