package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coffeeshop/coffeeshop-go/internal/auth"
	"github.com/coffeeshop/coffeeshop-go/internal/config"
	"github.com/coffeeshop/coffeeshop-go/internal/handler"
	"github.com/coffeeshop/coffeeshop-go/internal/repository"
	"github.com/coffeeshop/coffeeshop-go/internal/server"
	"github.com/coffeeshop/coffeeshop-go/internal/service"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))

	if envErr != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	if cfg.JWKSURL == "" {
		slog.Error("AUTH0_DOMAIN or JWKS_URL must be set")
		os.Exit(1)
	}

	var store service.DrinkStore
	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		if cfg.Env == "production" {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		slog.Warn("database connection failed, drinks are kept in memory", "error", err)
		store = repository.NewMemoryDrinkRepository()
	} else {
		defer db.Close()

		if cfg.MigrateOnStart {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := repository.Migrate(ctx, db)
			cancel()
			if err != nil {
				slog.Error("database migration failed", "error", err)
				os.Exit(1)
			}
		}
		store = repository.NewDrinkRepository(db)
	}

	keys, err := auth.NewRemoteKeySet(cfg.JWKSURL,
		auth.WithHTTPClient(&http.Client{Timeout: cfg.JWKSFetchTimeout}),
		auth.WithFetchTimeout(cfg.JWKSFetchTimeout),
		auth.WithRefreshInterval(cfg.JWKSRefreshInterval),
	)
	if err != nil {
		slog.Error("signing key set setup failed", "url", cfg.JWKSURL, "error", err)
		os.Exit(1)
	}
	verifier := auth.NewVerifier(keys, cfg.Issuer(), cfg.AuthAudience)

	drinkService := service.NewDrinkService(store)
	drinkHandler := handler.NewDrinkHandler(drinkService)

	srv := server.New(cfg, drinkHandler, verifier).HTTPServer()

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
