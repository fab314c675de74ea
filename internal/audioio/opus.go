package audioio

import (
	"fmt"

	"github.com/thesyncim/gopus"
)

// DecodeOpusPackets decodes a sequence of raw Opus packets (as captured from
// a lossy-recompressed consumer stream, per SPEC_FULL.md's "recompressed
// capture ingestion" addition) into a single interleaved float32 Buffer at
// the given sample rate / channel count. Grounded on gopus's Decoder.Decode
// signature; each packet is decoded into a fixed-size scratch frame and
// appended, since Opus packets don't carry their own sample count up front.
func DecodeOpusPackets(packets [][]byte, sampleRate, nChannels int) (*Buffer, error) {
	dec, err := gopus.NewDecoder(sampleRate, nChannels)
	if err != nil {
		return nil, fmt.Errorf("audioio: new opus decoder: %w", err)
	}

	const maxFrameSamples = 5760 // 120ms at 48kHz, the largest Opus frame
	scratch := make([]float32, maxFrameSamples*nChannels)

	var out []float32
	for i, pkt := range packets {
		n, err := dec.Decode(pkt, scratch)
		if err != nil {
			return nil, fmt.Errorf("audioio: decode opus packet %d: %w", i, err)
		}
		out = append(out, scratch[:n*nChannels]...)
	}

	return NewBuffer(nChannels, out), nil
}
