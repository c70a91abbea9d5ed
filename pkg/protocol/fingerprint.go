package protocol

import (
	"encoding/binary"

	"github.com/ZentaChain/mirlink/pkg/crypto"
)

// Fingerprint digests the registered entries (code, class, size, name) in code
// order. Peers built from the same catalog produce the same fingerprint.
func (r *Registry) Fingerprint() crypto.Digest {
	h := crypto.NewHasher()
	var rec [1 + 1 + 4 + 2]byte
	for _, e := range r.entries {
		rec[0] = uint8(e.Kind)
		rec[1] = uint8(e.Class)
		binary.LittleEndian.PutUint32(rec[2:], uint32(e.Size))
		binary.LittleEndian.PutUint16(rec[6:], uint16(len(e.Name)))
		h.Write(rec[:])
		h.Write([]byte(e.Name))
	}
	return crypto.SumHasher(h)
}

// Fingerprint returns the hex fingerprint of the default registry.
func Fingerprint() string {
	return defaultRegistry.Fingerprint().Hex()
}
