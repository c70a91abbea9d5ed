package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZentaChain/mirlink/pkg/api"
	"github.com/ZentaChain/mirlink/pkg/config"
	"github.com/ZentaChain/mirlink/pkg/logging"
	"github.com/ZentaChain/mirlink/pkg/network"
	"github.com/ZentaChain/mirlink/pkg/protocol"
	"github.com/ZentaChain/mirlink/pkg/storage"
)

const heartbeatInterval = 5 * time.Minute

var (
	configPath  = flag.String("config", "", "Path to TOML config file")
	listenAddr  = flag.String("listen", "", "Game listen address, host:port or multiaddr (overrides config)")
	apiAddr     = flag.String("api", "", "Diagnostics API address (overrides config)")
	noAPI       = flag.Bool("no-api", false, "Disable the diagnostics API")
	journalPath = flag.String("journal", "", "Enable the frame journal at this path (overrides config)")
	logLevel    = flag.String("log-level", "", "Log level (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mirlink-server: %v\n", err)
		os.Exit(1)
	}

	log := logging.Configure("mirlink-server", logging.Options{
		Level:   cfg.Log.Level,
		NoColor: cfg.Log.NoColor,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if *listenAddr != "" {
		cfg.Server.Listen = *listenAddr
	}
	if *apiAddr != "" {
		cfg.API.Addr = *apiAddr
	}
	if *noAPI {
		cfg.API.Enabled = false
	}
	if *journalPath != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = *journalPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	return cfg, cfg.Validate()
}

func run(cfg config.Config, log zerolog.Logger) error {
	registry := protocol.Default()
	log.Info().
		Str("fingerprint", registry.Fingerprint().Short()).
		Int("kinds", len(registry.Entries())).
		Msg("message registry loaded")

	// Frame journal
	var journal *storage.Journal
	if cfg.Journal.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
		j, err := storage.Open(cfg.Journal.Path, storage.Options{
			Retention: cfg.Journal.Retention,
			Logger:    logging.Component(log, "journal"),
		})
		if err != nil {
			return err
		}
		defer j.Close()
		journal = j
		log.Info().Str("path", cfg.Journal.Path).Dur("retention", cfg.Journal.Retention).Msg("frame journal enabled")
	}

	// Game link
	codec := protocol.NewCodec()
	codec.MaxBodySize = cfg.Server.MaxBodySize

	linkLog := logging.Component(log, "link")
	dispatcher := network.NewDispatcher(linkLog)
	registerHandlers(dispatcher, linkLog)

	serverConfig := network.ServerConfig{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		PingInterval: cfg.Server.PingInterval,
		Logger:       linkLog,
	}
	if journal != nil {
		serverConfig.Recorder = journal
	}
	server := network.NewServer(serverConfig, codec, dispatcher)

	netw, addr, err := config.ResolveListen(cfg.Server.Listen)
	if err != nil {
		return err
	}
	if err := server.Start(netw, addr); err != nil {
		return fmt.Errorf("failed to start game server: %w", err)
	}
	defer server.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Diagnostics API
	apiErr := make(chan error, 1)
	if cfg.API.Enabled {
		apiConfig := api.DefaultConfig()
		apiConfig.Addr = cfg.API.Addr
		apiConfig.EnableCORS = cfg.API.EnableCORS
		apiConfig.Logger = logging.Component(log, "api")

		opts := api.Options{Registry: registry, Sessions: server}
		if journal != nil {
			opts.Journal = journal
		}
		apiServer := api.NewServer(opts, apiConfig)
		go func() { apiErr <- apiServer.Start(ctx) }()
	}

	go heartbeatLoop(ctx, server, journal, log)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if err := server.Stop(); err != nil {
		log.Warn().Err(err).Msg("error stopping game server")
	}
	if cfg.API.Enabled {
		if err := <-apiErr; err != nil {
			log.Warn().Err(err).Msg("diagnostics api stopped with error")
		}
	}

	log.Info().Msg("server stopped")
	return nil
}

// registerHandlers installs the server-side handlers. Ping is echoed so clients
// can measure round trips; every other kind is only counted and journaled.
func registerHandlers(d *network.Dispatcher, log zerolog.Logger) {
	d.Handle(protocol.KindPing, func(link *network.Link, m *protocol.Message) error {
		return link.Send(m)
	})
	d.Handle(protocol.KindOffline, func(link *network.Link, m *protocol.Message) error {
		p, err := m.Payload()
		if err != nil {
			return err
		}
		off := p.(*protocol.Offline)
		log.Info().Uint64("uid", off.UID).Uint32("map", off.MapID).Str("remote", link.RemoteAddr().String()).Msg("creature offline")
		return nil
	})
}

func heartbeatLoop(ctx context.Context, server *network.Server, journal *storage.Journal, log zerolog.Logger) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		event := log.Info().Int("sessions", server.SessionCount())
		if journal != nil {
			if stats, err := journal.Stats(); err == nil {
				event = event.Int64("journaled", stats.Total)
			}
		}
		event.Msg("heartbeat")
	}
}
