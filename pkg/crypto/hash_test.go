package crypto

import (
	"testing"
)

func TestSum256(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string // BLAKE2b-256 hash in hex
	}{
		{
			name:     "empty input",
			input:    []byte{},
			expected: "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		},
		{
			name:     "simple string",
			input:    []byte("hello world"),
			expected: "256c83b297114d201b30179f3f0ef0cace9783622da5974326b436178aeef610",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sum256(tt.input).Hex()
			if got != tt.expected {
				t.Errorf("Sum256() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestHasherMatchesSum256(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")

	h := NewHasher()
	h.Write(data[:10])
	h.Write(data[10:])

	if SumHasher(h) != Sum256(data) {
		t.Error("streaming digest differs from Sum256()")
	}
}

func TestDigestShort(t *testing.T) {
	d := Sum256([]byte("hello world"))
	if d.Short() != "256c83b2" {
		t.Errorf("Short() = %s, want 256c83b2", d.Short())
	}
}
