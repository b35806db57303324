package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/onefourfourk/community-api/internal/bootstrap"
	"github.com/onefourfourk/community-api/internal/capacity"
	"github.com/onefourfourk/community-api/internal/config"
	"github.com/onefourfourk/community-api/internal/events"
	"github.com/onefourfourk/community-api/internal/handlers"
	"github.com/onefourfourk/community-api/internal/invitecode"
	"github.com/onefourfourk/community-api/internal/metrics"
	"github.com/onefourfourk/community-api/internal/middleware"
	"github.com/onefourfourk/community-api/internal/migration"
	"github.com/onefourfourk/community-api/internal/registration"
	"github.com/onefourfourk/community-api/internal/repository"
	"github.com/onefourfourk/community-api/internal/routes"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config  *config.Config
	members repository.MemberRepository
	invites repository.InviteRepository
	gate    capacity.Gate
	hub     *events.Hub
	logger  zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	app := &application{
		config: cfg,
		hub:    events.NewHub(logger),
		logger: logger,
	}

	// Wire storage for the configured driver.
	var db *sql.DB
	switch cfg.StorageDriver {
	case "postgres":
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to the database")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to ping database")
		}

		migration.RunMigrations(cfg.DatabaseURL, logger)

		app.members = repository.NewMemberRepository(db)
		app.invites = repository.NewInviteRepository(db)
		app.gate = capacity.NewPostgresGate(db, cfg.MaxMembers)
	case "memory":
		members := repository.NewMemoryMemberRepository()
		app.members = members
		app.invites = repository.NewMemoryInviteRepository()
		app.gate = capacity.NewMemoryGate(cfg.MaxMembers, members)
		logger.Warn().Msg("using in-memory storage; state will not survive restarts")
	default:
		logger.Fatal().Str("driver", cfg.StorageDriver).Msg("unknown storage driver")
	}

	generator := invitecode.NewGenerator(app.invites)

	ctx := context.Background()

	// Seed the founder on an empty store, then reconcile the admission
	// counter from the member count.
	if cfg.Seed.Enabled {
		seeder := bootstrap.NewSeeder(app.members, app.invites, generator, logger)
		if err := seeder.Run(ctx, cfg.Seed.FounderName, cfg.Seed.FounderEmail); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed community")
		}
	}
	if err := app.gate.Sync(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to sync capacity gate")
	}

	m := metrics.New()
	announcer := events.NewAnnouncer(logger, app.hub)
	service := registration.NewService(app.members, app.invites, app.gate, generator, announcer, cfg.MaxMembers, logger)

	regHandler := handlers.NewRegistrationHandler(service, m, logger)
	wsHandler := handlers.NewWebSocketHandler(app.hub, m, logger)

	router := routes.NewRouter(regHandler, wsHandler)
	loggedRouter := middleware.LoggingMiddleware(logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type"}),
		h.AllowCredentials(),
	)(loggedRouter)

	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server, then drop observers.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	app.hub.Close()
}
