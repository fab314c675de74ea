package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// readPacketCapture reads a sequence of uint32-length-prefixed Opus packets
// from path, the format a consumer-facing capture tool would produce when
// dumping a lossy-recompressed stream for offline sync-finding.
func readPacketCapture(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var packets [][]byte
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read packet length: %w", err)
		}

		n := binary.BigEndian.Uint32(lenBuf[:])
		pkt := make([]byte, n)
		if _, err := io.ReadFull(f, pkt); err != nil {
			return nil, fmt.Errorf("read packet body: %w", err)
		}
		packets = append(packets, pkt)
	}

	return packets, nil
}
