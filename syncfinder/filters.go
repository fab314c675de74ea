package syncfinder

import (
	"math"
	"sort"
)

// selectLocalMaxima keeps only scores whose |q| is >= the absolute quality
// at the two scores before and the two after, skipping the next two
// indices after each acceptance. Ties count as maxima. Grounded on
// SyncFinder::sync_select_local_maxima, syncfinder.cc:336-368.
func selectLocalMaxima(scores []SearchScore) []SearchScore {
	out := make([]SearchScore, 0, len(scores))

	for i := 0; i < len(scores); i++ {
		q := scores[i].AbsQuality()

		var qLast, qLast2, qNext, qNext2 float64
		if i > 0 {
			qLast = scores[i-1].AbsQuality()
		}
		if i > 1 {
			qLast2 = scores[i-2].AbsQuality()
		}
		if i+1 < len(scores) {
			qNext = scores[i+1].AbsQuality()
		}
		if i+2 < len(scores) {
			qNext2 = scores[i+2].AbsQuality()
		}

		if q >= qLast && q >= qNext && q >= qLast2 && q >= qNext2 {
			out = append(out, scores[i])
			i += 2
		}
	}
	return out
}

func qualitySign(s SearchScore) int {
	if s.RawQuality-s.LocalMean < 0 {
		return -1
	}
	return 1
}

// maskAvgFalsePositives drops a score if another surviving score within the
// mask distance has much larger magnitude and the opposite sign, removing
// the false-positive bias local-mean subtraction creates around a strong
// peak. Grounded on SyncFinder::sync_mask_avg_false_positives,
// syncfinder.cc:379-420.
func maskAvgFalsePositives(scores []SearchScore, p *Params) []SearchScore {
	maskDistance := p.maskDistance()
	out := make([]SearchScore, 0, len(scores))

	for i := range scores {
		masked := false

		for d := -maskDistance; d <= maskDistance; d++ {
			j := i + d
			if j == i || j < 0 || j >= len(scores) {
				continue
			}

			distance := int(math.Abs(float64(scores[i].Index-scores[j].Index))) / p.SyncSearchStep
			if distance > maskDistance {
				continue
			}

			if scores[j].AbsQuality() > scores[i].AbsQuality()*maskFactor &&
				qualitySign(scores[j]) != qualitySign(scores[i]) {
				masked = true
				break
			}
		}

		if !masked {
			out = append(out, scores[i])
		}
	}
	return out
}

// SelectByThreshold is an alternate single-pass adaptive-threshold local
// maxima selector carried from the original source (syncfinder.cc:423-461,
// SyncFinder::sync_select_by_threshold) though the default Search pipeline
// does not call it — the original never wires it into search() either.
// Exported for callers that want this specific strategy.
func SelectByThreshold(scores []SearchScore, p *Params) []SearchScore {
	var avgQuality float64
	for _, s := range scores {
		avgQuality += s.AbsQuality()
	}
	if len(scores) > 0 {
		avgQuality /= float64(len(scores))
	}

	adaptiveThreshold := avgQuality * 1.5
	fixedThreshold := p.SyncThreshold2 * 0.75
	syncThreshold1 := math.Min(fixedThreshold, math.Max(fixedThreshold*0.5, adaptiveThreshold))

	out := make([]SearchScore, 0, len(scores))
	for i := 0; i < len(scores); i++ {
		q := scores[i].AbsQuality()
		if q <= syncThreshold1 {
			continue
		}

		var qLast, qNext float64
		if i > 0 {
			qLast = scores[i-1].AbsQuality()
		}
		if i+1 < len(scores) {
			qNext = scores[i+1].AbsQuality()
		}

		if q >= qLast && q >= qNext {
			out = append(out, scores[i])
			i++
		}
	}
	return out
}

// selectThresholdAndNBest sorts scores by descending |q|, then keeps every
// score above an adaptively-lowered threshold, but never fewer than
// max(GetNBest, minResultsFloor) when that many candidates exist. Grounded
// on SyncFinder::sync_select_threshold_and_n_best, syncfinder.cc:463-494.
func selectThresholdAndNBest(scores []SearchScore, threshold float64, p *Params) []SearchScore {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].AbsQuality() > scores[j].AbsQuality()
	})

	adjustedThreshold := threshold
	if len(scores) > 0 && scores[0].AbsQuality() < threshold {
		adjustedThreshold = math.Max(threshold*0.6, scores[0].AbsQuality()*0.9)
	}

	i := 0
	for i < len(scores) && scores[i].AbsQuality() > adjustedThreshold {
		i++
	}

	minResults := p.GetNBest
	if minResults < minResultsFloor {
		minResults = minResultsFloor
	}

	switch {
	case i >= minResults:
		return scores[:i]
	case len(scores) > minResults:
		return scores[:minResults]
	default:
		return scores
	}
}

// truncateN sorts scores by descending |q| and keeps at most n. Grounded on
// SyncFinder::sync_select_truncate_n, syncfinder.cc:496-502.
func truncateN(scores []SearchScore, n int) []SearchScore {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].AbsQuality() > scores[j].AbsQuality()
	})
	if len(scores) > n {
		return scores[:n]
	}
	return scores
}

func sortByIndex(scores []SearchScore) {
	sort.Slice(scores, func(i, j int) bool { return scores[i].Index < scores[j].Index })
}
