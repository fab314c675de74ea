package audioio

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/syncfinder/syncfinder"
)

func sineSamples(n int, freq, sampleRate float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return out
}

func TestWriteWAVThenLoadWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	want := sineSamples(4800, 440, 48000)

	if err := WriteWAV(path, want, 1, 48000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	buf, sampleRate, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if sampleRate != 48000 {
		t.Errorf("sampleRate = %d, want 48000", sampleRate)
	}
	if buf.NChannels() != 1 {
		t.Errorf("NChannels = %d, want 1", buf.NChannels())
	}
	if buf.NValues() != len(want) {
		t.Fatalf("NValues = %d, want %d", buf.NValues(), len(want))
	}

	// 16-bit quantization means exact equality isn't expected; check the
	// round trip stays close.
	got := buf.Samples()
	var maxDiff float32
	for i := range want {
		d := got[i] - want[i]
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 0.01 {
		t.Errorf("round-trip max sample diff = %v, want < 0.01", maxDiff)
	}
}

func TestLoadWAVMissingFileErrors(t *testing.T) {
	if _, _, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing wav file")
	}
}

// readOnly drops the Seek method from an io.Reader so DecodeWAV's
// io.ReadSeeker assertion fails.
type readOnly struct {
	r *bytes.Reader
}

func (ro readOnly) Read(p []byte) (int, error) { return ro.r.Read(p) }

func TestDecodeWAVRejectsNonSeekableReader(t *testing.T) {
	_, _, err := DecodeWAV(readOnly{bytes.NewReader(nil)})
	if err == nil {
		t.Fatal("expected error for a non-seekable reader")
	}
}

func TestDecodeWAVEmptyBufferIsErrEmptyBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteWAV(path, nil, 1, 48000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	_, _, err := LoadWAV(path)
	if !errors.Is(err, syncfinder.ErrEmptyBuffer) {
		t.Fatalf("LoadWAV on empty samples = %v, want wrapped ErrEmptyBuffer", err)
	}
}
