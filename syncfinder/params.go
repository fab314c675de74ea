// Package syncfinder locates sample-accurate watermark sync blocks in an
// audio buffer for a set of candidate keys.
package syncfinder

// Params holds the read-only configuration for one Finder. All fields are
// externally adjustable; none are mutated after construction.
type Params struct {
	// FrameSize is the number of samples per analysis frame.
	FrameSize int

	// MinBand and MaxBand are the inclusive FFT bin range watermarking
	// modulates. NBands() = MaxBand - MinBand + 1.
	MinBand int
	MaxBand int

	// SyncBits is the number of logical bits in the sync preamble.
	SyncBits int
	// SyncFramesPerBit is the number of time frames each sync bit spans.
	SyncFramesPerBit int
	// MarkDataFrameCount is the number of data frames following the sync
	// preamble in one block.
	MarkDataFrameCount int
	// FramesPadStart is the number of frames of padding before the first
	// block (used by FakeSync to place synthetic scores).
	FramesPadStart int

	// SyncSearchStep is the coarse search grid step, in samples.
	SyncSearchStep int
	// SyncSearchFine is the refinement search grid step, in samples.
	SyncSearchFine int

	// SyncThreshold2 is the final (post-refinement) quality threshold.
	SyncThreshold2 float64
	// GetNBest is the minimum number of candidates to keep regardless of
	// threshold.
	GetNBest int
	// WaterDelta is the embedder's watermark strength; used to normalize
	// raw sync quality onto a roughly unit scale.
	WaterDelta float64

	// TestNoSync bypasses detection entirely and synthesizes scores at the
	// expected block boundaries (see FakeSync).
	TestNoSync bool

	// LocalMeanDistance is the half-width, in scores, of the local-mean
	// window used to de-bias raw sync quality. Externalized rather than a
	// buried compile-time constant so deployments can tune it without a
	// rebuild.
	LocalMeanDistance int
}

// Tunable internal constants governing the shape of the search/filter
// algorithm itself. These are not part of Params because they describe
// algorithm shape rather than deployment configuration, but are still named
// constants rather than magic numbers scattered through the file.
const (
	maskFactor           = 2.5
	minResultsFloor      = 4
	clipNBestFloor       = 5
	effectiveStepFloor   = 64
	fineStepFloor        = 4
	noiseWindowHalf      = 20
	selfExclusionRadius  = 4
	consistencyWeight    = 0.1
	normalizeDivisor     = 2.5
	waterDeltaCap        = 0.080
	fftDBFloor           = -96.0
	bitQualityEpsilon    = 1e-4
	bitQualityExponent   = 0.8
	localMeanNoiseFactor = 1.0 // multiplies noise level before adding to 1.0
)

// NBands returns the number of frequency bands watermarking modulates.
func (p *Params) NBands() int {
	return p.MaxBand - p.MinBand + 1
}

// MarkSyncFrameCount returns the number of time frames the sync preamble
// occupies: SyncBits * SyncFramesPerBit.
func (p *Params) MarkSyncFrameCount() int {
	return p.SyncBits * p.SyncFramesPerBit
}

// BlockFrameCount returns the number of frames in one sync+data block.
func (p *Params) BlockFrameCount() int {
	return p.MarkSyncFrameCount() + p.MarkDataFrameCount
}

// maskDistance widens LocalMeanDistance by a fixed margin so the
// false-positive mask always sees beyond the self-exclusion radius.
func (p *Params) maskDistance() int {
	return p.LocalMeanDistance + 3
}

// NewDefaultParams returns a Params with reasonable defaults for a
// 44.1/48kHz watermark stream. Callers deploying against a specific
// embedder must override FrameSize/MinBand/MaxBand/WaterDelta to match it.
func NewDefaultParams() *Params {
	return &Params{
		FrameSize:          1024,
		MinBand:            20,
		MaxBand:            60,
		SyncBits:           6,
		SyncFramesPerBit:   3,
		MarkDataFrameCount: 4,
		FramesPadStart:     3,
		SyncSearchStep:     256,
		SyncSearchFine:     8,
		SyncThreshold2:     0.4,
		GetNBest:           5,
		WaterDelta:         0.015,
		TestNoSync:         false,
		LocalMeanDistance:  4,
	}
}
