package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/deciflow/deciflow/internal/config"
	"github.com/deciflow/deciflow/internal/httpapi"
	"github.com/deciflow/deciflow/internal/infrastructure/logger"
	"github.com/deciflow/deciflow/internal/infrastructure/storage"
)

func main() {
	var port = flag.String("port", "", "server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.Setup(cfg.LogLevel)
	log.Info().
		Str("version", "1.0.0").
		Str("port", cfg.Port).
		Msg("starting deciflow api server")

	store := storage.NewBunStore(cfg.DatabaseDSN)
	log.Info().Str("dsn", maskDSN(cfg.DatabaseDSN)).Msg("using BunStore (PostgreSQL)")

	ctx := context.Background()
	if err := store.InitSchema(ctx); err != nil {
		log.Error().Err(err).Msg("failed to initialize database schema")
		os.Exit(1)
	}
	log.Info().Msg("database schema initialized")

	server := httpapi.NewServer(httpapi.Config{
		Store:              store,
		Logger:             log,
		JWTSecret:          cfg.JWTSecret,
		JWTTokenTTL:        cfg.JWTTokenTTL,
		SolverTimeoutMS:    cfg.SolverTimeoutMS,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Registry:           prometheus.NewRegistry(),
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	log.Info().
		Str("flows", "POST /api/v1/flows, GET /api/v1/flows/{id}").
		Str("evaluate", "POST /api/v1/flows/{id}/evaluate").
		Str("test", "GET /api/v1/flows/{id}/test").
		Str("health", "GET /healthz").
		Str("metrics", "GET /metrics").
		Msg("available endpoints")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	server.Close()
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close storage")
	}

	log.Info().Msg("server exited gracefully")
}

// maskDSN masks the password segment of a postgres DSN for safe logging.
func maskDSN(dsn string) string {
	if len(dsn) == 0 {
		return ""
	}

	start, end := -1, -1
	for i := 0; i < len(dsn); i++ {
		if dsn[i] == ':' && start == -1 {
			if i+1 < len(dsn) && dsn[i+1] != '/' {
				start = i + 1
			}
		}
		if dsn[i] == '@' && start != -1 {
			end = i
			break
		}
	}

	if start != -1 && end != -1 && end > start {
		return dsn[:start] + "***" + dsn[end:]
	}
	return dsn
}
