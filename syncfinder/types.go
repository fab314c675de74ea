package syncfinder

import "math"

// Mode selects how the sync finder expects watermark blocks to be laid out.
type Mode int

const (
	// ModeBlock expects exactly one sync pattern per block, no second
	// polarity-inverted block, and does not trim silence.
	ModeBlock Mode = iota
	// ModeClip expects possibly two consecutive blocks (a "long block")
	// and trims leading/trailing silence before searching.
	ModeClip
)

func (m Mode) String() string {
	switch m {
	case ModeBlock:
		return "block"
	case ModeClip:
		return "clip"
	default:
		return "unknown"
	}
}

// ConvBlockType is the detected polarity of one sync block.
type ConvBlockType int

const (
	BlockTypeA ConvBlockType = iota
	BlockTypeB
)

func (b ConvBlockType) String() string {
	if b == BlockTypeA {
		return "A"
	}
	return "B"
}

// FrameBit describes which frequency bands contribute positively ("up") and
// negatively ("down") to one sync bit, at one time-frame offset. Frame is
// relative to the start of the concatenated sync+data layout. Up and Down
// are rebased to [0, n_bands) and are each sorted ascending with no
// duplicates; they are disjoint from each other.
type FrameBit struct {
	Frame int
	Up    []int
	Down  []int
}

// SyncSchedule is the per-key sync-bit schedule produced by GetSyncBits:
// SyncSchedule[bit] is the list of FrameBits contributing to that bit,
// sorted ascending by Frame.
type SyncSchedule [][]FrameBit

// SearchScore is one raw candidate sample offset with its quality before
// and after local-mean subtraction.
type SearchScore struct {
	Index      int
	RawQuality float64
	LocalMean  float64
}

// AbsQuality returns |RawQuality - LocalMean|.
func (s SearchScore) AbsQuality() float64 {
	return math.Abs(s.RawQuality - s.LocalMean)
}

// SearchKeyResult accumulates coarse-search scores for one key before peak
// selection and refinement.
type SearchKeyResult struct {
	Key    Key
	Scores []SearchScore
}

// Score is one emitted, finalized sync candidate.
type Score struct {
	Index     int
	Quality   float64
	BlockType ConvBlockType
}

// KeyResult is the final, sorted-by-index list of sync scores for one key.
type KeyResult struct {
	Key        Key
	SyncScores []Score
}
