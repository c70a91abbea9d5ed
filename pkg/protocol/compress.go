package protocol

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// Compressor packs FixedCompressed bodies for the wire.
type Compressor interface {
	Compress(src []byte) []byte
	// Decompress must return exactly size bytes or an error.
	Decompress(src []byte, size int) ([]byte, error)
}

// S2Compressor compresses bodies with the S2 block format.
type S2Compressor struct{}

// Compress encodes src as one S2 block
func (S2Compressor) Compress(src []byte) []byte {
	return s2.Encode(nil, src)
}

// Decompress decodes one S2 block, rejecting blocks that do not expand to size.
func (S2Compressor) Decompress(src []byte, size int) ([]byte, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if n != size {
		return nil, fmt.Errorf("%w: block expands to %d bytes, want %d", ErrDecompress, n, size)
	}
	out, err := s2.Decode(make([]byte, size), src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	return out, nil
}
