package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/syedzayyan/pomonotes/internal/config"
	"github.com/syedzayyan/pomonotes/internal/db"
	"github.com/syedzayyan/pomonotes/internal/logger"
	"github.com/syedzayyan/pomonotes/internal/router"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.Logging.Service = "pomonotes-api"
	log := logger.New(cfg.Logging, os.Stdout)
	slog.SetDefault(log)

	database, err := db.OpenSQLite(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.ServerMigrations()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	engine := router.Build(database, router.Options{
		JWTSecret:   cfg.Server.JWTSecret,
		TokenTTL:    cfg.Server.TokenTTL,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(engine, "pomonotes-api"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("api listening", "addr", addr, "db_path", cfg.Server.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
		}
	}()

	<-done
	log.Info("shutting down api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
