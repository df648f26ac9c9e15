package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/config"
	"github.com/dan/depara/internal/db"
	"github.com/dan/depara/internal/logging"
	"github.com/dan/depara/internal/server"
)

type serveCmd struct {
	config.Config `embed:""`
}

func (cmd *serveCmd) Run(_ context.Context) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cmd.LogLevel, cmd.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint: errcheck

	log.Info("starting DePara dashboard", zap.String("addr", cmd.Addr), zap.String("tenants", cmd.TenantDir))

	// ── Database ────────────────────────────────────────────────────────
	database, err := db.New(cmd.DBPath, log.Named("db"))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	cat, err := cmd.LoadCatalog()
	if err != nil {
		return err
	}

	// ── HTTP Server ─────────────────────────────────────────────────────
	srv, err := server.New(cmd.Config, database, cat, log)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	srv.StartBackgroundJobs()
	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// ── Graceful Shutdown ───────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.Stringer("signal", sig))
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
