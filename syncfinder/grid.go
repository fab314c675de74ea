package syncfinder

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/syncfinder/syncfinder/pool"
)

// FrameCount returns the number of whole analysis frames available in wav.
func FrameCount(wav WavData, frameSize int) int {
	if wav.NChannels() == 0 || frameSize <= 0 {
		return 0
	}
	nSamples := wav.NValues() / wav.NChannels()
	return nSamples / frameSize
}

// ScanSilence returns the index of the first and one-past-the-last non-zero
// sample in wav's interleaved buffer. Grounded on SyncFinder::scan_silence,
// syncfinder.cc:201-215.
func ScanSilence(wav WavData) (first, last int) {
	samples := wav.Samples()

	first = 0
	for first < len(samples) && samples[first] == 0 {
		first++
	}

	last = len(samples)
	for last > first && samples[last-1] == 0 {
		last--
	}
	return first, last
}

// dbFromComplex converts a complex spectral bin to log magnitude, floored
// at minDB. Grounded on db_from_complex as used in syncfinder.cc:719.
func dbFromComplex(c complex64, minDB float64) float64 {
	mag := math.Hypot(float64(real(c)), float64(imag(c)))
	if mag <= 0 {
		return minDB
	}
	db := 20 * math.Log10(mag)
	if db < minDB {
		return minDB
	}
	return db
}

// syncFFT builds the fft_db/have_frames grid for frameCount frames starting
// at sample index, restricted to wavDataFirst/wavDataLast (silence bounds)
// and, if non-empty, wantFrames. A nil/empty wantFrames means "want every
// frame". Returns (nil, nil, nil) if the read would go past the buffer —
// a recoverable "not enough samples yet" condition rather than an error.
// Grounded on SyncFinder::sync_fft, syncfinder.cc:676-728.
func (p *Params) syncFFT(
	wav WavData,
	analyzer FFTAnalyzer,
	index int,
	frameCount int,
	wantFrames []bool,
	wavDataFirst, wavDataLast int,
) ([]float32, []bool, error) {
	nCh := wav.NChannels()
	if wav.NValues() < (index+frameCount*p.FrameSize)*nCh {
		return nil, nil, nil
	}

	nBands := p.NBands()
	fftDB := make([]float32, nBands*frameCount)
	haveFrames := make([]bool, frameCount)
	samples := wav.Samples()

	for f := 0; f < frameCount; f++ {
		if len(wantFrames) != 0 && !wantFrames[f] {
			continue
		}

		fFirst := (index + f*p.FrameSize) * nCh
		fLast := (index + (f+1)*p.FrameSize) * nCh

		if fLast > len(samples) {
			continue
		}
		if fFirst < wavDataFirst || fLast > wavDataLast {
			continue
		}

		haveFrames[f] = true

		spec, err := analyzer.RunFFT(samples, index+f*p.FrameSize, nCh, p.FrameSize)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFFTAnalyzer, err)
		}

		for ch := range spec {
			for i := 0; i < nBands; i++ {
				fftDB[f*nBands+i] += float32(dbFromComplex(spec[ch][i+p.MinBand], fftDBFloor))
			}
		}
		if len(spec) > 0 {
			for i := 0; i < nBands; i++ {
				fftDB[f*nBands+i] /= float32(len(spec))
			}
		}
	}

	return fftDB, haveFrames, nil
}

// syncFFTParallel builds the full fft_db/have_frames grid for wav at
// syncShift, fanning 32-frame-wide jobs out across pl. Grounded on
// SyncFinder::sync_fft_parallel, syncfinder.cc:745-787.
func (p *Params) syncFFTParallel(
	pl *pool.Pool,
	wav WavData,
	analyzer FFTAnalyzer,
	syncShift int,
	wavDataFirst, wavDataLast int,
) ([]float32, []bool, error) {
	nBands := p.NBands()
	framesNeeded := FrameCount(wav, p.FrameSize)

	fftDB := make([]float32, nBands*framesNeeded)
	haveFrames := make([]bool, framesNeeded)

	var mu sync.Mutex
	var errOnce sync.Once
	var firstErr error

	for fStart := 0; fStart < framesNeeded; fStart += 32 {
		fStart := fStart
		n := 32
		if framesNeeded-fStart < n {
			n = framesNeeded - fStart
		}

		pl.Submit(func(ctx context.Context) {
			threadFFTDB, threadHaveFrames, err := p.syncFFT(
				wav, analyzer, syncShift+fStart*p.FrameSize, n, nil, wavDataFirst, wavDataLast,
			)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			if len(threadFFTDB) == 0 {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			for fi := range threadHaveFrames {
				f := fStart + fi
				if f < framesNeeded && threadHaveFrames[fi] {
					haveFrames[f] = true
					copy(fftDB[f*nBands:(f+1)*nBands], threadFFTDB[fi*nBands:(fi+1)*nBands])
				}
			}
		})
	}
	pl.WaitAll()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return fftDB, haveFrames, nil
}
