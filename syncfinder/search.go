package syncfinder

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/syncfinder/syncfinder/pool"
)

// resultMutex is a thin alias for sync.Mutex, named for readability at the
// call sites in this file that guard shared result vectors written to from
// multiple pool workers.
type resultMutex struct {
	sync.Mutex
}

// onceErr captures the first error reported to it from any goroutine,
// letting concurrent refinement workers race to report a fatal failure
// without a data race on which one "wins".
type onceErr struct {
	mu  sync.Mutex
	err error
}

func (o *onceErr) set(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		o.err = err
	}
}

func (o *onceErr) get() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// searchApprox runs the coarse search: for every sub-frame time shift and
// every start frame, it computes a raw sync quality per key and collects
// scores, then de-biases each key's scores with a locally-averaged mean.
// Grounded on SyncFinder::search_approx, syncfinder.cc:217-333.
func (p *Params) searchApprox(
	pl *pool.Pool,
	analyzer FFTAnalyzer,
	wav WavData,
	schedules []SyncSchedule,
	mode Mode,
	wavDataFirst, wavDataLast int,
) ([]SearchKeyResult, error) {
	keyResults := make([]SearchKeyResult, len(schedules))

	nBands := p.NBands()
	totalFrameCount := p.BlockFrameCount()
	if mode == ModeClip {
		totalFrameCount *= 2
	}

	syncSearchStepEff := p.SyncSearchStep / 2
	if syncSearchStepEff < effectiveStepFloor {
		syncSearchStepEff = effectiveStepFloor
	}

	var resultMu resultMutex

	for syncShift := 0; syncShift < p.FrameSize; syncShift += syncSearchStepEff {
		fftDB, haveFrames, err := p.syncFFTParallel(pl, wav, analyzer, syncShift, wavDataFirst, wavDataLast)
		if err != nil {
			return nil, err
		}

		var startFrames []int
		for startFrame := 0; startFrame < FrameCount(wav, p.FrameSize); startFrame++ {
			if (startFrame+totalFrameCount)*nBands < len(fftDB) {
				startFrames = append(startFrames, startFrame)
			}
		}

		for k := range schedules {
			k := k
			for _, chunk := range splitInts(startFrames, 256) {
				chunk := chunk
				pl.Submit(func(ctx context.Context) {
					for _, startFrame := range chunk {
						quality := p.SyncDecode(schedules[k], startFrame, fftDB, haveFrames)
						syncIndex := startFrame*p.FrameSize + syncShift

						resultMu.Lock()
						keyResults[k].Scores = append(keyResults[k].Scores, SearchScore{
							Index:      syncIndex,
							RawQuality: quality,
							LocalMean:  0,
						})
						resultMu.Unlock()
					}
				})
			}
		}
		pl.WaitAll()
	}

	for k := range keyResults {
		sortByIndex(keyResults[k].Scores)
		p.fillLocalMean(keyResults[k].Scores)
	}

	return keyResults, nil
}

// fillLocalMean computes, for every score, a windowed average of the raw
// qualities around it (excluding itself and its immediate neighbors), using
// an adaptive window size on noisy score lists. Grounded on the local-mean
// loop inside SyncFinder::search_approx, syncfinder.cc:285-331. The mean
// reductions use gonum/stat.Mean rather than hand-rolled running sums.
func (p *Params) fillLocalMean(scores []SearchScore) {
	n := len(scores)
	raw := make([]float64, n)
	for i, s := range scores {
		raw[i] = s.RawQuality
	}

	for i := 0; i < n; i++ {
		windowSize := p.LocalMeanDistance

		if n > 100 {
			lo := i - noiseWindowHalf
			if lo < 0 {
				lo = 0
			}
			hi := i + noiseWindowHalf
			if hi > n {
				hi = n
			}

			noise := make([]float64, 0, hi-lo)
			for j := lo; j < hi; j++ {
				if j == i {
					continue
				}
				noise = append(noise, absFloat(raw[j]))
			}
			if len(noise) > 0 {
				noiseLevel := stat.Mean(noise, nil)
				candidate := int(float64(p.LocalMeanDistance) * (1.0 + localMeanNoiseFactor*noiseLevel))
				windowSize = maxInt(p.LocalMeanDistance, minInt(2*p.LocalMeanDistance, candidate))
			}
		}

		var samples []float64
		for j := -windowSize; j <= windowSize; j++ {
			if absInt(j) < selfExclusionRadius {
				continue
			}
			idx := i + j
			if idx >= 0 && idx < n {
				samples = append(samples, raw[idx])
			}
		}

		if len(samples) > 0 {
			scores[i].LocalMean = stat.Mean(samples, nil)
		} else {
			scores[i].LocalMean = 0
		}
	}
}

// searchRefine re-scores every surviving candidate at finer time resolution
// within a +/-SyncSearchStep window, keeping the prior local mean. Grounded
// on SyncFinder::search_refine, syncfinder.cc:504-573.
func (p *Params) searchRefine(
	pl *pool.Pool,
	analyzer FFTAnalyzer,
	wav WavData,
	mode Mode,
	keyResult *SearchKeyResult,
	schedule SyncSchedule,
	bitPosGen BitPosGen,
	wavDataFirst, wavDataLast int,
) error {
	totalFrameCount := p.BlockFrameCount()
	firstBlockEnd := totalFrameCount
	if mode == ModeClip {
		totalFrameCount *= 2
	}

	wantFrames := make([]bool, totalFrameCount)
	for f := 0; f < p.MarkSyncFrameCount(); f++ {
		wantFrames[bitPosGen.SyncFrame(f)] = true
		if mode == ModeClip {
			wantFrames[firstBlockEnd+bitPosGen.SyncFrame(f)] = true
		}
	}

	var resultMu resultMutex
	var resultScores []SearchScore
	var errOnce onceErr

	for _, score := range keyResult.Scores {
		score := score
		pl.Submit(func(ctx context.Context) {
			bestQuality := score.RawQuality
			bestIndex := score.Index

			start := score.Index - p.SyncSearchStep
			if start < 0 {
				start = 0
			}
			end := score.Index + p.SyncSearchStep

			fineStep := p.SyncSearchFine / 2
			if fineStep < fineStepFloor {
				fineStep = fineStepFloor
			}

			for fineIndex := start; fineIndex <= end; fineIndex += fineStep {
				fftDB, haveFrames, err := p.syncFFT(wav, analyzer, fineIndex, totalFrameCount, wantFrames, wavDataFirst, wavDataLast)
				if err != nil {
					errOnce.set(err)
					return
				}
				if len(fftDB) == 0 {
					continue
				}

				q := p.SyncDecode(schedule, 0, fftDB, haveFrames)
				if absFloat(q-score.LocalMean) > absFloat(bestQuality-score.LocalMean) {
					bestQuality = q
					bestIndex = fineIndex
				}
			}

			resultMu.Lock()
			resultScores = append(resultScores, SearchScore{
				Index:      bestIndex,
				RawQuality: bestQuality,
				LocalMean:  score.LocalMean,
			})
			resultMu.Unlock()
		})
	}
	pl.WaitAll()

	if err := errOnce.get(); err != nil {
		return err
	}

	sortByIndex(resultScores)
	keyResult.Scores = resultScores
	return nil
}

// FakeSync synthesizes scores at the expected block boundaries instead of
// running detection, for Params.TestNoSync. Grounded on
// SyncFinder::fake_sync, syncfinder.cc:575-600.
func (p *Params) FakeSync(keys []Key, wav WavData, mode Mode) []KeyResult {
	var scores []Score

	if mode == ModeBlock {
		expect0 := p.FramesPadStart * p.FrameSize
		expectStep := p.BlockFrameCount() * p.FrameSize
		expectEnd := FrameCount(wav, p.FrameSize) * p.FrameSize

		ab := 0
		for expectIndex := expect0; expectIndex+expectStep < expectEnd; expectIndex += expectStep {
			bt := BlockTypeA
			if ab&1 != 0 {
				bt = BlockTypeB
			}
			ab++
			scores = append(scores, Score{Index: expectIndex, Quality: 1.0, BlockType: bt})
		}
	}

	results := make([]KeyResult, len(keys))
	for i, k := range keys {
		results[i] = KeyResult{Key: k, SyncScores: append([]Score(nil), scores...)}
	}
	return results
}

// StageFunc is notified of the total candidate count across all keys after
// each pipeline stage completes. It may be nil.
type StageFunc func(stage string, n int)

const (
	stageCoarse   = "coarse"
	stageFiltered = "filtered"
	stageRefined  = "refined"
	stageEmitted  = "emitted"
)

// Search runs the full sync-finding pipeline for every key against wav and
// returns one KeyResult per key, sorted by Index. Grounded on
// SyncFinder::search, syncfinder.cc:602-673.
func (p *Params) Search(ctx context.Context, pl *pool.Pool, analyzer FFTAnalyzer, keys []Key, wav WavData, mode Mode, onStage StageFunc) ([]KeyResult, error) {
	if onStage == nil {
		onStage = func(string, int) {}
	}

	if p.TestNoSync {
		return p.FakeSync(keys, wav, mode), nil
	}

	var wavDataFirst, wavDataLast int
	if mode == ModeClip {
		wavDataFirst, wavDataLast = ScanSilence(wav)
	} else {
		wavDataFirst, wavDataLast = 0, len(wav.Samples())
	}

	schedules := make([]SyncSchedule, len(keys))
	bitPosGens := make([]BitPosGen, len(keys))
	for i, k := range keys {
		schedules[i] = p.GetSyncBits(k, mode)
		bitPosGens[i] = NewBitPosGen(k, p.MarkSyncFrameCount())
	}

	searchKeyResults, err := p.searchApprox(pl, analyzer, wav, schedules, mode, wavDataFirst, wavDataLast)
	if err != nil {
		return nil, fmt.Errorf("syncfinder: coarse search: %w", err)
	}
	onStage(stageCoarse, totalScores(searchKeyResults))

	// Peak selection is sequential and deterministic given the sorted
	// coarse-search output.
	for k := range searchKeyResults {
		scores := searchKeyResults[k].Scores
		scores = selectLocalMaxima(scores)
		scores = maskAvgFalsePositives(scores, p)
		scores = selectThresholdAndNBest(scores, p.SyncThreshold2*0.75, p)

		if mode == ModeClip {
			nMax := p.GetNBest
			if nMax < clipNBestFloor {
				nMax = clipNBestFloor
			}
			scores = truncateN(scores, nMax)
		}
		searchKeyResults[k].Scores = scores
	}
	onStage(stageFiltered, totalScores(searchKeyResults))

	// Refinement per key runs concurrently across keys; the first fatal
	// FFTAnalyzer error on any key is returned and no results are emitted,
	// instead of silently producing a partial/corrupt result set. A key whose
	// refinement has not started yet is skipped once the group's context is
	// cancelled; refinements already running are not interrupted.
	g, gctx := errgroup.WithContext(ctx)
	for k := range searchKeyResults {
		k := k
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return p.searchRefine(pl, analyzer, wav, mode, &searchKeyResults[k], schedules[k], bitPosGens[k], wavDataFirst, wavDataLast)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("syncfinder: refinement: %w", err)
	}
	onStage(stageRefined, totalScores(searchKeyResults))

	keyResults := make([]KeyResult, len(searchKeyResults))
	for k := range searchKeyResults {
		scores := selectThresholdAndNBest(searchKeyResults[k].Scores, p.SyncThreshold2, p)
		sortByIndex(scores)

		kr := KeyResult{Key: keys[k]}
		for _, s := range scores {
			q := s.RawQuality - s.LocalMean
			bt := BlockTypeB
			if q > 0 {
				bt = BlockTypeA
			}
			kr.SyncScores = append(kr.SyncScores, Score{
				Index:     s.Index,
				Quality:   absFloat(q),
				BlockType: bt,
			})
		}
		keyResults[k] = kr
	}

	emitted := 0
	for _, kr := range keyResults {
		emitted += len(kr.SyncScores)
	}
	onStage(stageEmitted, emitted)

	return keyResults, nil
}

func totalScores(results []SearchKeyResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Scores)
	}
	return n
}

func splitInts(vec []int, n int) [][]int {
	if n <= 0 {
		n = 1
	}
	var out [][]int
	for i := 0; i < len(vec); i += n {
		end := i + n
		if end > len(vec) {
			end = len(vec)
		}
		out = append(out, vec[i:end])
	}
	return out
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
