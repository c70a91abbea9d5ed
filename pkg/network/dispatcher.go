package network

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ZentaChain/mirlink/pkg/protocol"
)

// HandlerFunc handles one received message on link.
type HandlerFunc func(link *Link, m *protocol.Message) error

// Dispatcher routes received messages to handlers by kind.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[protocol.Kind]HandlerFunc
	log      zerolog.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[protocol.Kind]HandlerFunc),
		log:      logger,
	}
}

// Handle registers h for kind, replacing any earlier handler.
func (d *Dispatcher) Handle(kind protocol.Kind, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Dispatch delivers m to its handler. Unknown and unhandled messages are
// counted and dropped; only the handler's own error is returned.
func (d *Dispatcher) Dispatch(link *Link, m *protocol.Message) error {
	if m.Unknown {
		recordDrop(DropUnknown)
		d.log.Debug().Uint8("code", uint8(m.Kind)).Msg("dropping unregistered code")
		return nil
	}

	d.mu.RLock()
	h, ok := d.handlers[m.Kind]
	d.mu.RUnlock()

	if !ok {
		recordDrop(DropUnhandled)
		d.log.Debug().Str("kind", m.Attr.Name).Msg("no handler")
		return nil
	}

	if err := h(link, m); err != nil {
		recordDrop(DropHandler)
		return err
	}
	return nil
}
