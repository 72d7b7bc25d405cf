package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/api"
	"github.com/carebridge/healthcare-portal/internal/appointment"
	"github.com/carebridge/healthcare-portal/internal/assistant"
	"github.com/carebridge/healthcare-portal/internal/config"
	"github.com/carebridge/healthcare-portal/internal/db"
	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
	"github.com/carebridge/healthcare-portal/internal/medhistory"
	"github.com/carebridge/healthcare-portal/internal/prescription"
	redisclient "github.com/carebridge/healthcare-portal/internal/redis"
	"github.com/carebridge/healthcare-portal/internal/user"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := newLogger(cfg.Env)
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).
		Str("docstore", cfg.DocstoreBackend).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	var (
		store  docstore.Store
		pgPool *pgxpool.Pool
	)

	switch cfg.DocstoreBackend {
	case config.BackendPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()

		if err := db.EnsureSchema(rootCtx, pgPool); err != nil {
			logger.Fatal().Err(err).Msg("schema error")
		}
		logger.Info().Msg("connected to Postgres")

		store = docstore.NewPgStore(pgPool)
	case config.BackendRedis:
		store = docstore.NewRedisStore(rdb)
	}

	provider := identity.NewStoreProvider(store, []byte(cfg.JWTSecret), cfg.SessionTTL)
	roleCache := redisclient.NewRedisRoleCache(rdb, cfg.RoleCacheTTL)

	users := user.NewService(store, provider, logger)
	appointments := appointment.NewService(store, logger)
	prescriptions := prescription.NewService(store, logger)
	histories := medhistory.NewService(medhistory.NewRepository(store, logger))
	chat := assistant.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, logger)

	router := api.NewRouter(api.RouterConfig{
		Users:         users,
		Appointments:  appointments,
		Prescriptions: prescriptions,
		Histories:     histories,
		Assistant:     chat,
		Provider:      provider,
		Store:         store,
		RoleCache:     roleCache,
		Logger:        logger,
		PgPool:        pgPool,
		Redis:         rdb,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("api-server stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
