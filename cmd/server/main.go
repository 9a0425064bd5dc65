package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"whereabouts/internal/api"
	"whereabouts/internal/app"
	"whereabouts/internal/config"
	internaldb "whereabouts/internal/db"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	deps := app.Deps{Cfg: cfg, Logger: logger}

	if cfg.StoreBackend == config.BackendSQLite {
		writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, 4)
		if err != nil {
			return err
		}
		defer writeDB.Close() //nolint:errcheck
		defer readDB.Close()  //nolint:errcheck

		if err := internaldb.RunMigrations(writeDB); err != nil {
			return err
		}
		deps.WriteDB = writeDB
		deps.ReadDB = readDB
	}

	application, err := app.New(ctx, deps)
	if err != nil {
		return err
	}

	if sweeper := application.Services.Retention; sweeper != nil {
		if err := sweeper.Start(cfg.RetentionSchedule); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	handler := api.NewHandler(
		application.Services.Sharing,
		application.Services.Ingest,
		application.Services.Visibility,
		application.Services.Hub,
		logger.With("component", "api"),
	)
	router := api.NewRouter(handler, api.RouterConfig{
		IdentityHeader:     cfg.IdentityHeader,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.ListenAddr, "backend", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
