package audioio

import "testing"

func TestDecodeOpusPacketsEmptyReturnsEmptyBuffer(t *testing.T) {
	buf, err := DecodeOpusPackets(nil, 48000, 1)
	if err != nil {
		t.Fatalf("DecodeOpusPackets with no packets: %v", err)
	}
	if buf.NValues() != 0 {
		t.Errorf("NValues = %d, want 0 for no packets", buf.NValues())
	}
	if buf.NChannels() != 1 {
		t.Errorf("NChannels = %d, want 1", buf.NChannels())
	}
}

func TestDecodeOpusPacketsInvalidChannelCountErrors(t *testing.T) {
	if _, err := DecodeOpusPackets([][]byte{{0x00}}, 48000, 0); err == nil {
		t.Fatal("expected error constructing an opus decoder with 0 channels")
	}
}

func TestDecodeOpusPacketsRejectsGarbagePacket(t *testing.T) {
	if _, err := DecodeOpusPackets([][]byte{{0xff, 0xff, 0xff}}, 48000, 1); err == nil {
		t.Fatal("expected error decoding a malformed opus packet")
	}
}
