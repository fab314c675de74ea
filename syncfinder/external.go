package syncfinder

// WavData is the sample-buffer dependency this package searches over. This
// package never parses a file format itself; it only reads samples through
// this interface. A concrete WAV-backed implementation lives in
// internal/audioio.
type WavData interface {
	// NChannels returns the number of interleaved channels.
	NChannels() int
	// NValues returns the total number of sample values (NChannels *
	// frames), matching the original's wav_data.n_values().
	NValues() int
	// Samples returns the interleaved sample buffer.
	Samples() []float32
}

// FFTAnalyzer is the spectral-analysis dependency this package drives:
// given a start sample and this package's own channel/window layout, it
// returns one complex spectrum per channel for the frame-size-sample window
// starting at that sample. A concrete algo-fft-backed implementation lives
// in internal/audioio.
type FFTAnalyzer interface {
	// RunFFT returns one spectrum per channel, each of length
	// frameSize/2+1, for the window of frameSize samples (across
	// nChannels interleaved channels) starting at sample index.
	RunFFT(samples []float32, index int, nChannels int, frameSize int) ([][]complex64, error)
}

// UpDownGen is the per-key band-selection dependency: it tells the schedule
// builder which frequency bands carry a sync bit's "up" and "down"
// contributions at a given sync frame. Get must be safe to call from any
// goroutine for a fixed receiver (Search itself builds each key's schedule
// once, sequentially).
type UpDownGen interface {
	// Get returns the disjoint "up" and "down" band-index arrays (absolute
	// band indices, not yet rebased to [0, n_bands)) for the sync frame at
	// the given index within the sync preamble.
	Get(frameIndex int) (up []int, down []int)
}

// BitPosGen is the per-key time-slot dependency: it maps a sync-bit's
// logical frame index onto its actual slot within a block's time-frame
// layout.
type BitPosGen interface {
	// SyncFrame maps a sync-frame index to a time-frame slot within one
	// block's layout.
	SyncFrame(frameIndex int) int
}
