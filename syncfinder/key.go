package syncfinder

import (
	"encoding/hex"
	"fmt"
)

// Key is an opaque seed consumed by the per-key PRNG streams (UpDownGen,
// BitPosGen). It carries no semantics of its own within this package; the
// embedder and decoder agree out of band on how keys map to seeds.
type Key struct {
	bytes []byte
}

// NewKey wraps raw key bytes. The slice is copied.
func NewKey(b []byte) Key {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Key{bytes: cp}
}

// Bytes returns a copy of the key's raw bytes.
func (k Key) Bytes() []byte {
	cp := make([]byte, len(k.bytes))
	copy(cp, k.bytes)
	return cp
}

func (k Key) String() string {
	return fmt.Sprintf("%x", k.bytes)
}

// MarshalJSON encodes the key as its hex string, so a Key (and anything
// embedding one, such as KeyResult) round-trips through JSON the same way
// it prints.
func (k Key) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON decodes a hex string produced by MarshalJSON.
func (k *Key) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		s = string(data[1 : len(data)-1])
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("syncfinder: invalid key JSON: %w", err)
	}
	k.bytes = b
	return nil
}
