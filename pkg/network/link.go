package network

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZentaChain/mirlink/pkg/protocol"
)

// ErrLinkClosed is returned by Send after Close
var ErrLinkClosed = errors.New("link closed")

// Recorder observes every message that crosses a link. The frame journal
// implements it.
type Recorder interface {
	Record(direction string, m *protocol.Message) error
}

// LinkOptions configures a Link. The zero value has no deadlines, no
// recorder and discards logs.
type LinkOptions struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Recorder     Recorder
	Logger       zerolog.Logger
}

// Link is one framed connection. Send is safe for concurrent use; Receive
// must be called from a single goroutine.
type Link struct {
	conn  net.Conn
	codec *protocol.Codec
	opts  LinkOptions
	log   zerolog.Logger

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewLink wraps conn. codec may be nil for the default codec.
func NewLink(conn net.Conn, codec *protocol.Codec, opts LinkOptions) *Link {
	if codec == nil {
		codec = protocol.NewCodec()
	}
	return &Link{
		conn:  conn,
		codec: codec,
		opts:  opts,
		log:   opts.Logger.With().Str("remote", conn.RemoteAddr().String()).Logger(),
	}
}

// RemoteAddr returns the peer address
func (l *Link) RemoteAddr() net.Addr {
	return l.conn.RemoteAddr()
}

// Send frames and writes one message. Attr is taken from the link's registry,
// whatever the caller filled in.
func (l *Link) Send(m *protocol.Message) error {
	m = l.codec.Resolve(m)
	frame, err := l.codec.Encode(m)
	if err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.closed.Load() {
		return ErrLinkClosed
	}
	if l.opts.WriteTimeout > 0 {
		l.conn.SetWriteDeadline(time.Now().Add(l.opts.WriteTimeout))
	}
	if _, err := l.conn.Write(frame); err != nil {
		return err
	}

	recordTraffic(DirectionOut, m.Attr.Name, len(frame))
	l.record(DirectionOut, m)
	return nil
}

// SendPayload sends p as a message of its own kind.
func (l *Link) SendPayload(p protocol.Payload) error {
	return l.Send(protocol.NewMessage(p))
}

// Receive reads the next message. Unregistered codes come back with
// Unknown set; the link stays usable.
func (l *Link) Receive() (*protocol.Message, error) {
	if l.opts.ReadTimeout > 0 {
		l.conn.SetReadDeadline(time.Now().Add(l.opts.ReadTimeout))
	}
	m, n, err := l.codec.ReadMessage(l.conn)
	if err != nil {
		return nil, err
	}

	recordTraffic(DirectionIn, m.Attr.Name, n)
	l.record(DirectionIn, m)
	return m, nil
}

func (l *Link) record(direction string, m *protocol.Message) {
	if l.opts.Recorder == nil {
		return
	}
	if err := l.opts.Recorder.Record(direction, m); err != nil {
		l.log.Warn().Err(err).Str("kind", m.Attr.Name).Msg("journal record failed")
	}
}

// Close closes the underlying connection. Safe to call more than once.
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		err = l.conn.Close()
	})
	return err
}

// isClosedErr reports errors that mean the peer or we hung up.
func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
