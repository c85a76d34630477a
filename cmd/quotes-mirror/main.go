// Command quotes-mirror serves the remote quote snapshot over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcus/quotes/internal/api"
	"github.com/marcus/quotes/internal/kv"
	"github.com/marcus/quotes/internal/logging"
)

func main() {
	cfg := api.LoadConfig()

	logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	store, err := kv.Open(cfg.DataDir)
	if err != nil {
		slog.Error("open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	srv, err := api.NewServer(cfg, store)
	if err != nil {
		slog.Error("create server", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, err := srv.Start()
	if err != nil {
		slog.Error("start server", "err", err)
		os.Exit(1)
	}
	slog.Info("server started", "addr", addr.String(), "data_dir", cfg.DataDir, "delay", cfg.Delay)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}
