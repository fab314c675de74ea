package syncfinder

import "sort"

// GetSyncBits builds the per-key sync-bit schedule. ModeClip doubles the
// block (the "long block" layout, second block polarity-inverted);
// ModeBlock does not. Grounded on SyncFinder::get_sync_bits,
// syncfinder.cc:31-79.
func (p *Params) GetSyncBits(key Key, mode Mode) SyncSchedule {
	firstBlockEnd := p.BlockFrameCount()
	blockCount := 1
	if mode != ModeBlock {
		blockCount = 2
	}

	upDownGen := NewUpDownGen(key, p.MinBand, p.MaxBand)
	bitPosGen := NewBitPosGen(key, p.MarkSyncFrameCount())

	schedule := make(SyncSchedule, 0, p.SyncBits)
	for bit := 0; bit < p.SyncBits; bit++ {
		frameBits := make([]FrameBit, 0, p.SyncFramesPerBit*blockCount)

		for f := 0; f < p.SyncFramesPerBit; f++ {
			idx := f + bit*p.SyncFramesPerBit
			frameUp, frameDown := upDownGen.Get(idx)

			for block := 0; block < blockCount; block++ {
				fb := FrameBit{
					Frame: bitPosGen.SyncFrame(idx) + block*firstBlockEnd,
				}
				if block == 0 {
					for _, u := range frameUp {
						fb.Up = append(fb.Up, u-p.MinBand)
					}
					for _, d := range frameDown {
						fb.Down = append(fb.Down, d-p.MinBand)
					}
				} else {
					// Second block of a long block is the polarity-inverted
					// sibling of the first: up/down swapped.
					for _, u := range frameUp {
						fb.Down = append(fb.Down, u-p.MinBand)
					}
					for _, d := range frameDown {
						fb.Up = append(fb.Up, d-p.MinBand)
					}
				}
				sort.Ints(fb.Up)
				sort.Ints(fb.Down)
				frameBits = append(frameBits, fb)
			}
		}

		sort.SliceStable(frameBits, func(i, j int) bool {
			return frameBits[i].Frame < frameBits[j].Frame
		})
		schedule = append(schedule, frameBits)
	}
	return schedule
}
