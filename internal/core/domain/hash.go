package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 content digest. Every unique byte sequence
// ingested by the pipeline is addressed by exactly one Hash.
type Hash [32]byte

// HashBytes computes the content hash of the given bytes.
func HashBytes(data []byte) Hash {
	return Hash(blake3.Sum256(data))
}

// String returns the canonical hex encoding used in the manifest,
// logs and CLI output.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters, used in progress output
// where the full digest is noise.
func (h Hash) Short() string {
	return hex.EncodeToString(h[:6])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parsing content hash: %w", err)
	}
	if len(decoded) != len(h) {
		return h, fmt.Errorf("content hash is %d bytes, want %d", len(decoded), len(h))
	}
	copy(h[:], decoded)
	return h, nil
}
