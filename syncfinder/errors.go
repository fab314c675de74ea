package syncfinder

import "errors"

// ErrFFTAnalyzer is returned (wrapped) when the FFTAnalyzer fails on a
// precondition it should never be handed by this package (wrong channel
// count, wrong window length). This is treated as fatal: it aborts the
// in-flight search rather than being treated as a recoverable absent frame.
var ErrFFTAnalyzer = errors.New("syncfinder: fft analyzer failure")

// ErrEmptyBuffer is a benign condition: an empty WavData or empty key list
// yields empty results rather than an error, but helper constructors that
// require a non-empty buffer return this.
var ErrEmptyBuffer = errors.New("syncfinder: empty sample buffer")
