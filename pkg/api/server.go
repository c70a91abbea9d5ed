// Package api serves the read-only diagnostics HTTP API of a mirlink server.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ZentaChain/mirlink/pkg/protocol"
	"github.com/ZentaChain/mirlink/pkg/storage"
)

// JournalReader is the read side of the frame journal
type JournalReader interface {
	Recent(limit int) ([]storage.Frame, error)
	Stats() (*storage.Stats, error)
	Hourly(since time.Time) ([]storage.HourBucket, error)
}

// SessionCounter reports connected game sessions
type SessionCounter interface {
	SessionCount() int
}

// Server is the diagnostics HTTP server
type Server struct {
	registry   *protocol.Registry
	journal    JournalReader
	sessions   SessionCounter
	router     *gin.Engine
	httpServer *http.Server
	config     *Config
	log        zerolog.Logger
	startTime  time.Time
}

// Config holds server configuration
type Config struct {
	Addr         string
	EnableCORS   bool
	RateLimit    int // Requests per minute per client IP, zero disables
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       zerolog.Logger
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:7080",
		EnableCORS:   false,
		RateLimit:    600,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Options wires the data sources. Journal and Sessions may be nil.
type Options struct {
	Registry *protocol.Registry
	Journal  JournalReader
	Sessions SessionCounter
}

// NewServer creates a new diagnostics server
func NewServer(opts Options, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if opts.Registry == nil {
		opts.Registry = protocol.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		registry:  opts.Registry,
		journal:   opts.Journal,
		sessions:  opts.Sessions,
		router:    gin.New(),
		config:    config,
		log:       config.Logger,
		startTime: time.Now(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	if s.config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}
	if s.config.RateLimit > 0 {
		s.router.Use(RateLimitMiddleware(NewRateLimiter(s.config.RateLimit)))
	}

	s.router.Use(LoggingMiddleware(s.log))
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		registry := v1.Group("/registry")
		{
			registry.GET("", s.handleRegistry)
			registry.GET("/:code", s.handleLookup)
		}

		journal := v1.Group("/journal")
		{
			journal.GET("/recent", s.handleJournalRecent)
			journal.GET("/stats", s.handleJournalStats)
			journal.GET("/hourly", s.handleJournalHourly)
		}
	}

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler returns the router, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", listener.Addr().String()).Msg("diagnostics api listening")
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down diagnostics api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
