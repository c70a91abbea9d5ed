// Package crypto provides the hashing used to fingerprint protocol catalogs.
package crypto

import (
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the BLAKE2b-256 digest length in bytes
const DigestSize = blake2b.Size256

// Digest is a BLAKE2b-256 digest
type Digest [DigestSize]byte

// Sum256 returns the BLAKE2b-256 digest of data
func Sum256(data []byte) Digest {
	return Digest(blake2b.Sum256(data))
}

// Hex returns the digest as lowercase hex
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 8 hex characters, for log lines
func (d Digest) Short() string {
	return d.Hex()[:8]
}

// NewHasher returns a streaming BLAKE2b-256 hasher
func NewHasher() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}

// SumHasher finalizes h into a Digest. h must come from NewHasher.
func SumHasher(h hash.Hash) Digest {
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
