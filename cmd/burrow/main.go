// Command burrow runs the Burrow lending marketplace: server-rendered pages
// plus the JSON API on one listener.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/alice"
	"github.com/rs/cors"

	"github.com/erazemk/burrow/internal/api"
	"github.com/erazemk/burrow/internal/config"
	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/ratelimit"
	"github.com/erazemk/burrow/internal/store"
	"github.com/erazemk/burrow/internal/telemetry"
	"github.com/erazemk/burrow/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Log.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "driver", cfg.Database.Driver)

	// The JWT secret is generated on first run and kept in the database.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	handler, err := newHandler(cfg, database, jwtSecret)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("failed to flush telemetry", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done

	slog.Info("server stopped, closing database")
	return nil
}

// newHandler combines the API and page routers behind the shared request
// middleware. API routes take priority, pages handle the rest.
func newHandler(cfg *config.Config, database *db.DB, jwtSecret string) (http.Handler, error) {
	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	apiRouter := api.NewRouter(database, jwtSecret, limiter)
	if len(cfg.Server.CORSOrigins) > 0 {
		apiRouter = cors.New(cors.Options{
			AllowedOrigins: cfg.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         600,
		}).Handler(apiRouter)
	}

	webRouter, err := web.NewRouter(database, web.Options{
		JWTSecret:     jwtSecret,
		Limiter:       limiter,
		SecureCookies: cfg.Server.SecureCookies,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up web router: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	return alice.New(
		middleware.RequestID,
		middleware.RealIP,
		api.LoggingMiddleware,
		middleware.Recoverer,
	).Then(mux), nil
}
