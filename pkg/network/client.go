package network

import (
	"context"
	"net"

	"github.com/ZentaChain/mirlink/pkg/protocol"
)

// Client is a dialed link with its own dispatcher
type Client struct {
	*Link
	dispatcher *Dispatcher
}

// Dial connects to a game server over TCP.
func Dial(ctx context.Context, addr string, codec *protocol.Codec, dispatcher *Dispatcher, opts LinkOptions) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if dispatcher == nil {
		dispatcher = NewDispatcher(opts.Logger)
	}
	return &Client{
		Link:       NewLink(conn, codec, opts),
		dispatcher: dispatcher,
	}, nil
}

// Run dispatches received messages until ctx is done or the link fails.
// A clean hang-up by the server returns nil.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		m, err := c.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isClosedErr(err) {
				return nil
			}
			return err
		}

		if err := c.dispatcher.Dispatch(c.Link, m); err != nil {
			c.log.Warn().Err(err).Str("kind", m.Attr.Name).Msg("handler failed")
		}
	}
}
