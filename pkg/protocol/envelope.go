package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrTruncated    = errors.New("protocol: truncated message")
	ErrBodySize     = errors.New("protocol: body size does not match framing")
	ErrBodyTooLarge = errors.New("protocol: body too large")
	ErrDecompress   = errors.New("protocol: decompression failed")
)

// lengthPrefixSize is the width of the little-endian length that precedes
// VariablePlain bodies and compressed FixedCompressed bodies.
const lengthPrefixSize = 4

// DefaultMaxBodySize bounds VariablePlain and compressed bodies on read.
const DefaultMaxBodySize = 64 * 1024

// Message is one framed message: a code byte and its uncompressed body.
type Message struct {
	Kind Kind
	// Attr is the attribute the code resolved to when the message was read.
	Attr Attribute
	// Unknown is set on read when the code has no registry entry (or is
	// KindNone). Such messages carry no body and should be dropped.
	Unknown bool
	Body    []byte
}

// NewMessage wraps an encoded payload. Attr is resolved against the default
// registry; a Codec over another registry restamps it in Resolve.
func NewMessage(p Payload) *Message {
	return &Message{
		Kind: p.Kind(),
		Attr: Lookup(uint8(p.Kind())),
		Body: p.Encode(),
	}
}

// Payload decodes the body through the layout catalog.
func (m *Message) Payload() (Payload, error) {
	p, err := NewPayload(m.Kind)
	if err != nil {
		return nil, err
	}
	if len(m.Body) != p.Size() {
		return nil, fmt.Errorf("%w: %s body is %d bytes, layout is %d", ErrBodySize, m.Kind, len(m.Body), p.Size())
	}
	if err := p.Decode(m.Body); err != nil {
		return nil, err
	}
	return p, nil
}

// Codec frames messages using a registry for sizes and a compressor for
// FixedCompressed bodies. A Codec is read-only after construction and may be
// shared by many links.
type Codec struct {
	Registry    *Registry
	Compressor  Compressor
	MaxBodySize int
}

// NewCodec returns a codec over the default registry with S2 compression
func NewCodec() *Codec {
	return &Codec{
		Registry:    Default(),
		Compressor:  S2Compressor{},
		MaxBodySize: DefaultMaxBodySize,
	}
}

// Resolve returns a copy of m whose Attr and Unknown come from the codec's
// registry. m itself is not modified, so a shared message can be resolved
// concurrently.
func (c *Codec) Resolve(m *Message) *Message {
	out := *m
	out.Attr = c.Registry.Lookup(uint8(m.Kind))
	out.Unknown = m.Kind == KindNone || !c.Registry.Registered(uint8(m.Kind))
	return &out
}

// Encode frames m into a single buffer.
func (c *Codec) Encode(m *Message) ([]byte, error) {
	attr := c.Registry.Lookup(uint8(m.Kind))

	switch attr.Class {
	case Empty:
		if len(m.Body) != 0 {
			return nil, fmt.Errorf("%w: %s is empty, got %d bytes", ErrBodySize, attr.Name, len(m.Body))
		}
		return []byte{uint8(m.Kind)}, nil

	case FixedPlain:
		if len(m.Body) != attr.Size {
			return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrBodySize, attr.Name, attr.Size, len(m.Body))
		}
		buf := make([]byte, 1+attr.Size)
		buf[0] = uint8(m.Kind)
		copy(buf[1:], m.Body)
		return buf, nil

	case FixedCompressed:
		if len(m.Body) != attr.Size {
			return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrBodySize, attr.Name, attr.Size, len(m.Body))
		}
		return c.prefixed(m.Kind, c.Compressor.Compress(m.Body))

	case VariablePlain:
		return c.prefixed(m.Kind, m.Body)

	default:
		return nil, fmt.Errorf("%w: %s has framing class %s", ErrBodySize, attr.Name, attr.Class)
	}
}

func (c *Codec) prefixed(kind Kind, body []byte) ([]byte, error) {
	if len(body) > c.maxBody() {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrBodyTooLarge, len(body), c.maxBody())
	}
	buf := make([]byte, 1+lengthPrefixSize+len(body))
	buf[0] = uint8(kind)
	binary.LittleEndian.PutUint32(buf[1:], uint32(len(body)))
	copy(buf[1+lengthPrefixSize:], body)
	return buf, nil
}

// WriteMessage frames m and writes it with a single Write call. It returns the
// number of bytes put on the wire.
func (c *Codec) WriteMessage(w io.Writer, m *Message) (int, error) {
	buf, err := c.Encode(m)
	if err != nil {
		return 0, err
	}
	return w.Write(buf)
}

// ReadMessage reads one message. It returns io.EOF only when r ends cleanly
// before a code byte, and ErrTruncated when r ends inside a message.
func (c *Codec) ReadMessage(r io.Reader) (*Message, int, error) {
	var code [1]byte
	if _, err := io.ReadFull(r, code[:]); err != nil {
		return nil, 0, err
	}
	read := 1

	m := &Message{
		Kind:    Kind(code[0]),
		Attr:    c.Registry.Lookup(code[0]),
		Unknown: code[0] == uint8(KindNone) || !c.Registry.Registered(code[0]),
	}

	switch m.Attr.Class {
	case Empty:
		return m, read, nil

	case FixedPlain:
		body := make([]byte, m.Attr.Size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, read, truncated(m.Attr.Name, err)
		}
		m.Body = body
		return m, read + len(body), nil

	case FixedCompressed:
		packed, n, err := c.readPrefixed(r, m.Attr.Name)
		read += n
		if err != nil {
			return nil, read, err
		}
		body, err := c.Compressor.Decompress(packed, m.Attr.Size)
		if err != nil {
			return nil, read, fmt.Errorf("%s: %w", m.Attr.Name, err)
		}
		m.Body = body
		return m, read, nil

	case VariablePlain:
		body, n, err := c.readPrefixed(r, m.Attr.Name)
		read += n
		if err != nil {
			return nil, read, err
		}
		m.Body = body
		return m, read, nil

	default:
		return nil, read, fmt.Errorf("%w: %s has framing class %s", ErrBodySize, m.Attr.Name, m.Attr.Class)
	}
}

func (c *Codec) readPrefixed(r io.Reader, name string) ([]byte, int, error) {
	var prefix [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, 0, truncated(name, err)
	}
	length := binary.LittleEndian.Uint32(prefix[:])
	if uint64(length) > uint64(c.maxBody()) {
		return nil, lengthPrefixSize, fmt.Errorf("%w: %s declares %d bytes, limit %d", ErrBodyTooLarge, name, length, c.maxBody())
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, lengthPrefixSize, truncated(name, err)
	}
	return body, lengthPrefixSize + int(length), nil
}

func (c *Codec) maxBody() int {
	if c.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

func truncated(name string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, name)
	}
	return err
}
