package audioio

import (
	"errors"
	"fmt"
	"math"
	"sync"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/syncfinder/syncfinder"
)

var _ syncfinder.FFTAnalyzer = (*DefaultFFTAnalyzer)(nil)

// fftPlan caches the two algo-fft plan flavors for one transform size,
// mirroring analysis/distance.go's spectralFFTPlan: a fast plan is
// preferred when algo-fft supports the size, falling back to the always-
// available safe plan otherwise.
type fftPlan struct {
	mu   sync.Mutex
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

func (p *fftPlan) forward(dst []complex128, src []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Forward(dst, src)
	}
	return errors.New("audioio: missing fft plan")
}

// DefaultFFTAnalyzer implements syncfinder.FFTAnalyzer on top of algo-fft,
// caching one real-FFT plan per transform size it is asked to run and
// applying a Hann window before each transform, grounded on
// analysis/distance.go's getSpectralFFTPlan/spectralFFTPlan.
type DefaultFFTAnalyzer struct {
	plans sync.Map // map[int]*fftPlan
}

// NewDefaultFFTAnalyzer returns a ready-to-use analyzer. It holds no
// per-channel state, so a single instance may be shared across concurrent
// RunFFT calls.
func NewDefaultFFTAnalyzer() *DefaultFFTAnalyzer {
	return &DefaultFFTAnalyzer{}
}

func (a *DefaultFFTAnalyzer) plan(n int) (*fftPlan, error) {
	if v, ok := a.plans.Load(n); ok {
		return v.(*fftPlan), nil
	}

	p := &fftPlan{}
	if fast, err := algofft.NewFastPlanReal64(n); err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		// Ignore fast-plan setup failure, the safe plan below still works.
	}

	safe, err := algofft.NewPlanReal64(n)
	if err != nil {
		if p.fast == nil {
			return nil, fmt.Errorf("audioio: build fft plan (n=%d): %w", n, err)
		}
	} else {
		p.safe = safe
	}

	actual, _ := a.plans.LoadOrStore(n, p)
	return actual.(*fftPlan), nil
}

// RunFFT extracts frameSize samples per channel starting at sample index
// from the interleaved samples buffer, windows each channel with a Hann
// window, and returns one complex spectrum per channel.
func (a *DefaultFFTAnalyzer) RunFFT(samples []float32, index int, nChannels int, frameSize int) ([][]complex64, error) {
	if nChannels <= 0 {
		return nil, fmt.Errorf("audioio: invalid channel count %d", nChannels)
	}

	p, err := a.plan(frameSize)
	if err != nil {
		return nil, err
	}

	window := hannWindow(frameSize)
	bins := frameSize/2 + 1

	out := make([][]complex64, nChannels)
	windowed := make([]float64, frameSize)
	spectrum := make([]complex128, bins)

	for ch := 0; ch < nChannels; ch++ {
		for i := 0; i < frameSize; i++ {
			windowed[i] = float64(samples[(index+i)*nChannels+ch]) * window[i]
		}
		if err := p.forward(spectrum, windowed); err != nil {
			return nil, fmt.Errorf("audioio: fft channel %d: %w", ch, err)
		}

		chanOut := make([]complex64, bins)
		for i, c := range spectrum {
			chanOut[i] = complex64(c)
		}
		out[ch] = chanOut
	}

	return out, nil
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}
