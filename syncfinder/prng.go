package syncfinder

import (
	"hash/fnv"
	"math/rand"
)

// keyedUpDownGen is the default UpDownGen: a per-key, per-stream-tag seeded
// PRNG that draws n_bands/2 disjoint "up" and "down" band indices per sync
// frame. Seeded via rand.New(rand.NewSource(seed + per-call-index*prime)),
// consistent with this codebase's other seeded-RNG call sites
// (cmd/piano-fit-fast/optimize.go), rather than a from-scratch stream
// cipher, since no example in the pack carries a dedicated keyed-DRBG
// library.
type keyedUpDownGen struct {
	seed    int64
	minBand int
	maxBand int
}

// NewUpDownGen returns the default UpDownGen for key, restricted to the
// band range [minBand, maxBand].
func NewUpDownGen(key Key, minBand, maxBand int) UpDownGen {
	return &keyedUpDownGen{
		seed:    streamSeed(key, "sync_up_down"),
		minBand: minBand,
		maxBand: maxBand,
	}
}

func (g *keyedUpDownGen) Get(frameIndex int) (up []int, down []int) {
	r := rand.New(rand.NewSource(g.seed + int64(frameIndex)*7919))

	bands := make([]int, 0, g.maxBand-g.minBand+1)
	for b := g.minBand; b <= g.maxBand; b++ {
		bands = append(bands, b)
	}
	r.Shuffle(len(bands), func(i, j int) { bands[i], bands[j] = bands[j], bands[i] })

	half := len(bands) / 2
	up = append([]int(nil), bands[:half]...)
	down = append([]int(nil), bands[half:2*half]...)
	return up, down
}

// keyedBitPosGen is the default BitPosGen: a deterministic permutation of
// time-frame slots within the sync preamble, seeded per key.
type keyedBitPosGen struct {
	perm []int
}

// NewBitPosGen returns the default BitPosGen for key across nSyncFrames
// sync-preamble frame slots.
func NewBitPosGen(key Key, nSyncFrames int) BitPosGen {
	seed := streamSeed(key, "sync_bit_pos")
	r := rand.New(rand.NewSource(seed))
	perm := r.Perm(nSyncFrames)
	return &keyedBitPosGen{perm: perm}
}

func (g *keyedBitPosGen) SyncFrame(frameIndex int) int {
	if frameIndex < 0 || frameIndex >= len(g.perm) {
		return frameIndex
	}
	return g.perm[frameIndex]
}

// streamSeed derives a 64-bit seed from a key and a stream tag, so that
// distinct PRNG purposes (sync_up_down vs sync_bit_pos) drawn from the same
// key never correlate.
func streamSeed(key Key, tag string) int64 {
	h := fnv.New64a()
	h.Write(key.Bytes())
	h.Write([]byte{0})
	h.Write([]byte(tag))
	return int64(h.Sum64())
}
