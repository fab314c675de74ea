package syncfinder

import "math"

// bitQuality converts summed up/down log-magnitude energy for one bit into
// a raw signed value in roughly [-1, +1]. Grounded on SyncFinder::
// bit_quality, syncfinder.cc:98-131. The epsilon branches saturate to
// ±0.9 rather than ±1.0 — this asymmetry is intentional and must be
// preserved exactly for bit-compatibility with existing decoded audio.
func bitQuality(umag, dmag float64, bit int) float64 {
	expectDataBit := bit&1 != 0

	var rawBit float64
	switch {
	case umag == 0 && dmag == 0:
		rawBit = 0
	case umag < bitQualityEpsilon:
		rawBit = -0.9
	case dmag < bitQualityEpsilon:
		rawBit = 0.9
	case umag < dmag:
		rawBit = 1 - math.Pow(umag/dmag, bitQualityExponent)
	default:
		rawBit = math.Pow(dmag/umag, bitQualityExponent) - 1
	}

	if expectDataBit {
		return rawBit
	}
	return -rawBit
}

// normalizeSyncQuality scales a raw accumulated sync quality onto a roughly
// unit scale so that a single threshold works across watermark strengths.
// Grounded on SyncFinder::normalize_sync_quality, syncfinder.cc:82-96.
func (p *Params) normalizeSyncQuality(rawQuality float64) float64 {
	waterDeltaFactor := math.Min(p.WaterDelta, waterDeltaCap)
	return rawQuality / waterDeltaFactor / normalizeDivisor
}

// SyncDecode scores one candidate start frame against schedule, using the
// populated FFT grid (fftDB indexed by frame*nBands+band, haveFrames by
// frame).
// Grounded on SyncFinder::sync_decode, syncfinder.cc:133-199, including the
// intentionally-preserved "mean = sync_quality*bit_count" scaling quirk in
// the consistency penalty (reproduced as written, not "fixed" — see
// DESIGN.md).
func (p *Params) SyncDecode(schedule SyncSchedule, startFrame int, fftDB []float32, haveFrames []bool) float64 {
	nBands := p.NBands()

	var syncQuality float64
	var bitCount int
	bitQualities := make([]float64, 0, len(schedule))

	for bit, frameBits := range schedule {
		var umag, dmag float64
		var frameBitCount int

		for _, fb := range frameBits {
			absFrame := startFrame + fb.Frame
			if absFrame < 0 || absFrame >= len(haveFrames) || !haveFrames[absFrame] {
				continue
			}
			base := absFrame * nBands
			for i := range fb.Up {
				umag += float64(fftDB[base+fb.Up[i]])
				dmag += float64(fftDB[base+fb.Down[i]])
			}
			frameBitCount++
		}

		q := bitQuality(umag, dmag, bit) * float64(frameBitCount)
		bitQualities = append(bitQualities, q)
		syncQuality += q
		bitCount += frameBitCount
	}

	if bitCount > 0 {
		syncQuality /= float64(bitCount)

		if len(bitQualities) > 1 {
			// Intentionally uses the un-normalized quality*bitCount product
			// here rather than the per-frame mean, matching the reference
			// implementation's variance-scaling behavior.
			mean := syncQuality * float64(bitCount)
			var variance float64
			for _, q := range bitQualities {
				d := q - mean
				variance += d * d
			}
			variance /= float64(len(bitQualities))

			consistencyFactor := 1.0 / (1.0 + variance*consistencyWeight)
			syncQuality *= consistencyFactor
		}
	}

	return p.normalizeSyncQuality(syncQuality)
}
