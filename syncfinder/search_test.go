package syncfinder

import (
	"context"
	"testing"
)

func TestSearchEmptyKeysReturnsEmptyResults(t *testing.T) {
	p := testParams()
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*4)}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}
	pl := newTestPool()
	defer pl.Close()

	results, err := p.Search(context.Background(), pl, a, nil, w, ModeBlock, nil)
	if err != nil {
		t.Fatalf("Search with no keys returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search with no keys = %v, want empty", results)
	}
}

func TestSearchPureSilenceClipModeYieldsZeroQualityOnly(t *testing.T) {
	// Pure silence means ScanSilence trims the entire buffer to an empty
	// data range, so every frame is "unavailable" and every candidate's raw
	// quality is 0. The pipeline still emits up to GetNBest best-effort
	// candidates (matching the original's "always return your best guess"
	// behavior), but none of them should show any real quality.
	p := testParams()
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*4)} // all zero
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}
	pl := newTestPool()
	defer pl.Close()

	key := NewKey([]byte("silence-key"))
	results, err := p.Search(context.Background(), pl, a, []Key{key}, w, ModeClip, nil)
	if err != nil {
		t.Fatalf("Search over pure silence returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search returned %d key results, want 1", len(results))
	}
	for _, s := range results[0].SyncScores {
		if s.Quality != 0 {
			t.Errorf("pure-silence candidate at index %d has nonzero quality %v", s.Index, s.Quality)
		}
	}
}

func TestSearchTestNoSyncBlockModeUsesFakeSync(t *testing.T) {
	p := testParams()
	p.TestNoSync = true
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*5)}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}
	pl := newTestPool()
	defer pl.Close()

	key := NewKey([]byte("fake-key"))
	results, err := p.Search(context.Background(), pl, a, []Key{key}, w, ModeBlock, nil)
	if err != nil {
		t.Fatalf("Search with TestNoSync returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search returned %d key results, want 1", len(results))
	}
	if len(results[0].SyncScores) == 0 {
		t.Fatal("TestNoSync Search produced no synthetic scores")
	}
	for _, s := range results[0].SyncScores {
		if s.Quality != 1.0 {
			t.Errorf("synthetic score quality = %v, want 1.0", s.Quality)
		}
	}
}

func TestFakeSyncAlternatesBlockType(t *testing.T) {
	p := testParams()
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*6)}
	key := NewKey([]byte("alt-key"))

	results := p.FakeSync([]Key{key}, w, ModeBlock)
	if len(results) != 1 {
		t.Fatalf("FakeSync returned %d results, want 1", len(results))
	}
	scores := results[0].SyncScores
	if len(scores) < 2 {
		t.Fatalf("FakeSync produced only %d scores, want at least 2 to check alternation", len(scores))
	}
	for i := 1; i < len(scores); i++ {
		if scores[i].BlockType == scores[i-1].BlockType {
			t.Errorf("FakeSync block types did not alternate at index %d: %v then %v", i, scores[i-1].BlockType, scores[i].BlockType)
		}
	}
}

func TestFakeSyncClipModeProducesNoScores(t *testing.T) {
	p := testParams()
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*4)}
	key := NewKey([]byte("clip-key"))

	results := p.FakeSync([]Key{key}, w, ModeClip)
	if len(results[0].SyncScores) != 0 {
		t.Errorf("FakeSync in ModeClip produced %d scores, want 0 (only ModeBlock synthesizes)", len(results[0].SyncScores))
	}
}

func TestSearchStageCallbackFiresForEveryStage(t *testing.T) {
	p := testParams()
	p.TestNoSync = false
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*4)}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand}
	pl := newTestPool()
	defer pl.Close()

	var stages []string
	onStage := func(stage string, n int) {
		stages = append(stages, stage)
	}

	key := NewKey([]byte("stage-key"))
	_, err := p.Search(context.Background(), pl, a, []Key{key}, w, ModeBlock, onStage)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	want := []string{stageCoarse, stageFiltered, stageRefined, stageEmitted}
	if len(stages) != len(want) {
		t.Fatalf("onStage fired %d times (%v), want %d (%v)", len(stages), stages, len(want), want)
	}
	for i, s := range want {
		if stages[i] != s {
			t.Errorf("stage %d = %q, want %q", i, stages[i], s)
		}
	}
}

func TestSearchPropagatesFatalAnalyzerError(t *testing.T) {
	p := testParams()
	w := &fakeWav{nChannels: 1, samples: make([]float32, p.BlockFrameCount()*p.FrameSize*4)}
	a := &fakeAnalyzer{bins: p.NBands() + p.MinBand, fail: true}
	pl := newTestPool()
	defer pl.Close()

	key := NewKey([]byte("fail-key"))
	_, err := p.Search(context.Background(), pl, a, []Key{key}, w, ModeBlock, nil)
	if err == nil {
		t.Fatal("Search with a failing analyzer returned no error")
	}
}
