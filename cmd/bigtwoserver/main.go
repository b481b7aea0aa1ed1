// Command bigtwoserver is the process entrypoint (spec.md §6): it loads
// configuration, wires the bus/rooms/identity/session graph, mounts the
// REST and websocket routers on one HTTP server, and starts the idle-room
// reaper. Grounded on the pack's signal-driven graceful shutdown
// (_examples/lox-pokerforbots/cmd/server/main.go), generalized from a
// single server.Start call to a multi-router mux with a bounded shutdown
// timeout.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"bigtwo/internal/botplay"
	"bigtwo/internal/bus"
	"bigtwo/internal/config"
	"bigtwo/internal/gamesub"
	"bigtwo/internal/httpapi"
	"bigtwo/internal/identity"
	"bigtwo/internal/namegen"
	"bigtwo/internal/rooms"
	"bigtwo/internal/roomsub"
	"bigtwo/internal/session"
	"bigtwo/internal/statsub"
	"bigtwo/internal/wsserver"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel, ReportTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	store, err := buildSessionStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize session store", "error", err)
	}
	if closer, ok := store.(interface{ Close() }); ok {
		defer closer.Close()
	}

	names := namegen.New()
	b := bus.New(logger)
	identities := identity.NewRegistry(names)
	coordinator := rooms.NewCoordinator(b, names, logger)
	sessions := session.NewManager(cfg.JWTSecret, cfg.SessionExpiration, store)
	stats := statsub.New(b, identities, logger)
	games := gamesub.New(b, coordinator, cfg.GameResetDelay, logger)
	bots := botplay.New(b, coordinator, identities, cfg.BotThinkMin, cfg.BotThinkMax, logger)
	leaves := roomsub.New(b, coordinator, logger)
	sockets := wsserver.New(b, coordinator, sessions, identities, cfg.OutboundQueueDeadline, logger)

	// Every subscriber gets its own goroutine per room, started the moment
	// the room exists. rooms.Coordinator knows nothing about any of them.
	coordinator.OnRoomCreated(func(roomID string) {
		go games.Run(roomID)
		go bots.Run(roomID)
		go stats.Run(roomID)
		go leaves.Run(roomID)
		sockets.Egress(roomID)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reaper := rooms.NewReaper(coordinator, cfg.IdleRoomTimeout, logger)
	go reaper.Run(ctx)

	api := httpapi.New(sessions, coordinator, identities, stats)
	root := chi.NewRouter()
	root.Mount("/", api.Router())
	root.Mount("/ws", sockets.Router())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: root,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("bigtwoserver listening", "port", cfg.Port)
		serverErr <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", "error", err)
		}
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete in time", "error", err)
		}
	}
}

// buildSessionStore picks a Postgres-backed session.Store when DATABASE_URL
// is configured, otherwise an in-memory one (spec.md §6: DATABASE_URL is
// optional, sessions still work without persistence across restarts).
func buildSessionStore(cfg *config.Config, logger *log.Logger) (session.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory session store")
		return session.NewMemoryStore(), nil
	}
	logger.Info("connecting to session database")
	return session.NewPostgresStore(context.Background(), cfg.DatabaseURL)
}
