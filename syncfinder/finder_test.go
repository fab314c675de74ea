package syncfinder

import (
	"context"
	"testing"

	"github.com/cwbudde/syncfinder/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

func TestFinderSearchWithNilLoggerAndMetrics(t *testing.T) {
	p := testParams()
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*4)}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}

	f := NewFinder(p, a, nil, nil)
	key := NewKey([]byte("finder-key"))

	results, err := f.Search(context.Background(), []Key{key}, w, ModeBlock)
	if err != nil {
		t.Fatalf("Finder.Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Finder.Search returned %d results, want 1", len(results))
	}
}

func TestFinderSearchReportsMetrics(t *testing.T) {
	p := testParams()
	p.TestNoSync = true
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*5)}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}

	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)

	f := NewFinder(p, a, nil, metrics)
	key := NewKey([]byte("metrics-key"))

	if _, err := f.Search(context.Background(), []Key{key}, w, ModeBlock); err != nil {
		t.Fatalf("Finder.Search returned error: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	n := 0
	for _, mf := range mfs {
		n += len(mf.GetMetric())
	}
	if n == 0 {
		t.Error("Finder.Search with metrics configured produced no observations")
	}
}
