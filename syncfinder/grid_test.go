package syncfinder

import (
	"errors"
	"testing"

	"github.com/cwbudde/syncfinder/syncfinder/pool"
)

func newTestPool() *pool.Pool {
	return pool.New(4)
}

// fakeWav is a minimal in-memory WavData for tests.
type fakeWav struct {
	nChannels int
	samples   []float32
}

func (w *fakeWav) NChannels() int     { return w.nChannels }
func (w *fakeWav) NValues() int       { return len(w.samples) }
func (w *fakeWav) Samples() []float32 { return w.samples }

// fakeAnalyzer returns a fixed spectrum for every call, or an error when
// failAt is hit.
type fakeAnalyzer struct {
	bins   int
	fail   bool
	failOn func(index int) bool
}

func (a *fakeAnalyzer) RunFFT(samples []float32, index int, nChannels int, frameSize int) ([][]complex64, error) {
	if a.fail || (a.failOn != nil && a.failOn(index)) {
		return nil, errors.New("fake analyzer failure")
	}
	out := make([][]complex64, nChannels)
	for ch := range out {
		spec := make([]complex64, a.bins)
		for i := range spec {
			spec[i] = complex(1, 0)
		}
		out[ch] = spec
	}
	return out, nil
}

func TestFrameCountDivides(t *testing.T) {
	w := &fakeWav{nChannels: 1, samples: make([]float32, 2048)}
	if n := FrameCount(w, 1024); n != 2 {
		t.Errorf("FrameCount = %d, want 2", n)
	}
}

func TestFrameCountZeroChannelsIsZero(t *testing.T) {
	w := &fakeWav{nChannels: 0, samples: make([]float32, 1024)}
	if n := FrameCount(w, 1024); n != 0 {
		t.Errorf("FrameCount with 0 channels = %d, want 0", n)
	}
}

func TestScanSilenceTrimsLeadingAndTrailingZeros(t *testing.T) {
	samples := make([]float32, 10)
	samples[3] = 1
	samples[4] = 1
	samples[6] = 1

	w := &fakeWav{nChannels: 1, samples: samples}
	first, last := ScanSilence(w)
	if first != 3 || last != 7 {
		t.Errorf("ScanSilence = (%d, %d), want (3, 7)", first, last)
	}
}

func TestScanSilenceAllZeroIsEmptyRange(t *testing.T) {
	w := &fakeWav{nChannels: 1, samples: make([]float32, 8)}
	first, last := ScanSilence(w)
	if first != last {
		t.Errorf("ScanSilence on all-silence = (%d, %d), want an empty range", first, last)
	}
}

func TestDbFromComplexFloorsAtMinDB(t *testing.T) {
	if db := dbFromComplex(complex64(complex(0, 0)), -96); db != -96 {
		t.Errorf("dbFromComplex(0) = %v, want floor -96", db)
	}
}

func TestSyncFFTReturnsNilOnBufferTooShort(t *testing.T) {
	p := testParams()
	w := &fakeWav{nChannels: 1, samples: make([]float32, 10)} // far too short
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}

	fftDB, haveFrames, err := p.syncFFT(w, a, 0, p.BlockFrameCount(), nil, 0, len(w.samples))
	if err != nil {
		t.Fatalf("syncFFT returned error %v, want nil (recoverable buffer-too-short)", err)
	}
	if fftDB != nil || haveFrames != nil {
		t.Errorf("syncFFT = (%v, %v), want (nil, nil) on buffer-too-short", fftDB, haveFrames)
	}
}

func TestSyncFFTWrapsAnalyzerError(t *testing.T) {
	p := testParams()
	samples := make([]float32, p.BlockFrameCount()*p.FrameSize+8)
	w := &fakeWav{nChannels: 1, samples: samples}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand, fail: true}

	_, _, err := p.syncFFT(w, a, 0, p.BlockFrameCount(), nil, 0, len(samples))
	if !errors.Is(err, ErrFFTAnalyzer) {
		t.Fatalf("syncFFT error = %v, want wrapped ErrFFTAnalyzer", err)
	}
}

func TestSyncFFTParallelMergesChunks(t *testing.T) {
	p := testParams()
	frameCount := 40 // forces more than one 32-frame chunk
	samples := make([]float32, frameCount*p.FrameSize+8)
	w := &fakeWav{nChannels: 1, samples: samples}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}

	pl := newTestPool()
	defer pl.Close()

	fftDB, haveFrames, err := p.syncFFTParallel(pl, w, a, 0, 0, len(samples))
	if err != nil {
		t.Fatalf("syncFFTParallel error: %v", err)
	}

	have := 0
	for _, h := range haveFrames {
		if h {
			have++
		}
	}
	if have == 0 {
		t.Error("syncFFTParallel produced no have_frames set")
	}
	if len(fftDB) != p.NBands()*FrameCount(w, p.FrameSize) {
		t.Errorf("fftDB length = %d, want %d", len(fftDB), p.NBands()*FrameCount(w, p.FrameSize))
	}
}
