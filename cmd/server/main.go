package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ledgerbank/backend/api"
	"github.com/ledgerbank/backend/internal/audit"
	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/database"
	"github.com/ledgerbank/backend/internal/events"
	"github.com/ledgerbank/backend/internal/events/kafka"
	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/logger"
	mW "github.com/ledgerbank/backend/internal/middleware"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/services"
	"github.com/ledgerbank/backend/internal/storage"
	"github.com/ledgerbank/backend/internal/storage/memory"
	"github.com/ledgerbank/backend/internal/storage/postgres"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title LedgerBank Backend API
// @version 1.0
// @description Accounts, money movements, cards, loans and customer provisioning
// @host localhost:8080
// @BasePath /
// @schemes http https

// backend is the full persistence surface of the server.
type backend interface {
	ledger.Store
	services.Store
	storage.CredentialStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var sessions auth.SessionStore = auth.NopSessionStore{}
	if rdb := database.InitRedis(ctx, cfg.Redis, log); rdb != nil {
		defer rdb.Close()
		sessions = auth.NewRedisSessionStore(rdb)
	} else {
		log.Warn().Msg("token revocation and login throttling disabled")
	}

	hasher := auth.NewPasswordHasher(cfg.Argon2)
	authn := auth.NewAuthenticator(store, hasher, auth.NewTokenIssuer(cfg.JWT), sessions, cfg.Auth, log)

	if cfg.Admin.Enabled() {
		bootstrapAdmin(ctx, store, hasher, cfg.Admin, log)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		kp := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing transaction events")
	}

	engine := ledger.NewEngine(store,
		ledger.WithPublisher(publisher),
		ledger.WithAudit(audit.NewLogger(log)),
		ledger.WithLogger(log),
		ledger.WithConfig(cfg.Ledger),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(cfg.Server, log, engine, store, authn),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("storage", cfg.Storage.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (backend, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn().Msg("using in-memory storage, all data is lost on exit")
		store := memory.NewStore()
		store.SeedLoanTypes()
		return store, func() {}, nil
	}

	db, err := database.InitDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}

func bootstrapAdmin(ctx context.Context, store storage.CustomerStore, hasher *auth.PasswordHasher, cfg config.AdminConfig, log zerolog.Logger) {
	_, err := auth.ProvisionStaff(ctx, store, hasher, models.NewStaff{
		FirstName: "System",
		LastName:  "Administrator",
		Email:     cfg.Email,
		Position:  "Administrator",
		Role:      models.RoleAdmin,
	}, cfg.Password)
	switch {
	case errors.Is(err, storage.ErrDuplicateEmail):
		log.Debug().Str("email", cfg.Email).Msg("bootstrap admin already exists")
	case err != nil:
		log.Error().Err(err).Msg("failed to create bootstrap admin")
	default:
		log.Info().Str("email", cfg.Email).Msg("bootstrap admin created")
	}
}

func newRouter(cfg config.ServerConfig, log zerolog.Logger, engine *ledger.Engine, store backend, identity services.Identity) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mW.RequestLogger(log))
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// API documentation
	r.Handle("/openapi.yaml", mW.StaticDocument(api.OpenAPI, "application/yaml"))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	services.Mount(r, engine, store, identity)
	return r
}
