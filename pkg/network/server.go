package network

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZentaChain/mirlink/pkg/protocol"
)

// ServerConfig configures a Server
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PingInterval sends SM_PING to every session on this period. Zero disables it.
	PingInterval time.Duration
	Recorder     Recorder
	Logger       zerolog.Logger
}

// Session is one accepted client connection
type Session struct {
	*Link
	ID          uint64
	ConnectedAt time.Time
}

// Server accepts game client connections and dispatches their messages.
type Server struct {
	cfg        ServerConfig
	codec      *protocol.Codec
	dispatcher *Dispatcher
	log        zerolog.Logger

	listener net.Listener
	sessions map[uint64]*Session
	nextID   uint64
	stopped  bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once

	// Callbacks
	OnConnect    func(*Session)
	OnDisconnect func(*Session)
}

// NewServer creates a server. codec may be nil for the default codec.
func NewServer(cfg ServerConfig, codec *protocol.Codec, dispatcher *Dispatcher) *Server {
	if codec == nil {
		codec = protocol.NewCodec()
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(cfg.Logger)
	}
	RegisterMetrics()
	return &Server{
		cfg:        cfg,
		codec:      codec,
		dispatcher: dispatcher,
		log:        cfg.Logger,
		sessions:   make(map[uint64]*Session),
		done:       make(chan struct{}),
	}
}

// Dispatcher returns the dispatcher received messages are routed through
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Start listens on addr and accepts in the background.
func (s *Server) Start(network, addr string) error {
	listener, err := net.Listen(network, addr)
	if err != nil {
		return err
	}

	s.listener = listener
	s.log.Info().Str("addr", listener.Addr().String()).Msg("game server listening")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every session, then waits for their loops.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			err = s.listener.Close()
		}

		s.mu.Lock()
		s.stopped = true
		open := make([]*Session, 0, len(s.sessions))
		for _, sess := range s.sessions {
			open = append(open, sess)
		}
		s.mu.Unlock()

		for _, sess := range open {
			sess.Close()
		}
		s.wg.Wait()
	})
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.log.Error().Err(err).Msg("accept failed")
			}
			return
		}

		sess := s.add(conn)
		if sess == nil {
			conn.Close()
			return
		}
		go s.serve(sess)
	}
}

// add registers a session for conn, or returns nil once Stop has begun.
func (s *Server) add(conn net.Conn) *Session {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.wg.Add(1)
	s.nextID++
	id := s.nextID
	sess := &Session{
		Link: NewLink(conn, s.codec, LinkOptions{
			ReadTimeout:  s.cfg.ReadTimeout,
			WriteTimeout: s.cfg.WriteTimeout,
			Recorder:     s.cfg.Recorder,
			Logger:       s.log.With().Uint64("session", id).Logger(),
		}),
		ID:          id,
		ConnectedAt: time.Now(),
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	linkSessions.Inc()
	return sess
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	linkSessions.Dec()
	sess.Close()
}

// serve runs the receive loop of one session until the connection ends.
func (s *Server) serve(sess *Session) {
	defer s.wg.Done()
	defer s.remove(sess)

	log := sess.log
	log.Info().Msg("session connected")
	if s.OnConnect != nil {
		s.OnConnect(sess)
	}
	defer func() {
		if s.OnDisconnect != nil {
			s.OnDisconnect(sess)
		}
		log.Info().Dur("duration", time.Since(sess.ConnectedAt)).Msg("session disconnected")
	}()

	if s.cfg.PingInterval > 0 {
		stop := make(chan struct{})
		defer close(stop)
		s.wg.Add(1)
		go s.keepalive(sess, stop)
	}

	for {
		m, err := sess.Receive()
		if err != nil {
			if !isClosedErr(err) {
				log.Warn().Err(err).Msg("receive failed")
			}
			return
		}

		if err := s.dispatcher.Dispatch(sess.Link, m); err != nil {
			log.Warn().Err(err).Str("kind", m.Attr.Name).Msg("handler failed")
		}
	}
}

// keepalive sends SM_PING with the session age in milliseconds.
func (s *Server) keepalive(sess *Session, stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tick := uint32(time.Since(sess.ConnectedAt).Milliseconds())
			if err := sess.SendPayload(&protocol.Ping{Tick: tick}); err != nil {
				sess.log.Debug().Err(err).Msg("keepalive ping failed")
				return
			}
		}
	}
}

// Session returns the session with id
func (s *Server) Session(id uint64) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount returns the number of connected sessions
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Broadcast sends m to every session and returns how many sends succeeded.
func (s *Server) Broadcast(m *protocol.Message) int {
	s.mu.RLock()
	targets := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		targets = append(targets, sess)
	}
	s.mu.RUnlock()

	sent := 0
	for _, sess := range targets {
		if err := sess.Send(m); err != nil {
			sess.log.Debug().Err(err).Str("kind", m.Attr.Name).Msg("broadcast send failed")
			continue
		}
		sent++
	}
	return sent
}
