package syncfinder

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/syncfinder/internal/telemetry"
	"github.com/cwbudde/syncfinder/syncfinder/pool"
)

// Finder is the public entry point: it pairs a Params configuration with an
// FFTAnalyzer, a worker pool, and optional logging/metrics, and exposes a
// stateless-per-invocation Search operation. All working state is created
// fresh for each Search call and discarded on return; the only thing that
// persists across calls is the immutable Params. Grounded on the
// config-struct-plus-engine shape of piano.Piano in piano/engine.go.
type Finder struct {
	Params   *Params
	Analyzer FFTAnalyzer
	Workers  int

	Logger  *log.Logger
	Metrics *telemetry.Metrics
}

// NewFinder constructs a Finder. logger and metrics may be nil.
func NewFinder(params *Params, analyzer FFTAnalyzer, logger *log.Logger, metrics *telemetry.Metrics) *Finder {
	return &Finder{
		Params:   params,
		Analyzer: analyzer,
		Logger:   logger,
		Metrics:  metrics,
	}
}

// Search runs Params.Search for keys against wav under mode, logging
// progress and reporting per-stage candidate counts and total duration to
// Metrics when configured.
func (f *Finder) Search(ctx context.Context, keys []Key, wav WavData, mode Mode) ([]KeyResult, error) {
	logger := f.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	pl := pool.New(f.Workers)
	defer pl.Close()

	start := time.Now()
	logger.Info("search starting", "keys", len(keys), "mode", mode.String(), "samples", wav.NValues())

	onStage := func(stage string, n int) {
		f.Metrics.AddCandidates(stage, n)
		logger.Debug("stage complete", "stage", stage, "candidates", n)
	}

	results, err := f.Params.Search(ctx, pl, f.Analyzer, keys, wav, mode, onStage)
	elapsed := time.Since(start)
	f.Metrics.ObserveSearch(elapsed.Seconds())

	if err != nil {
		logger.Error("search failed", "elapsed", elapsed, "err", err)
		return nil, err
	}

	logger.Info("search complete", "elapsed", elapsed, "results", len(results))
	return results, nil
}
