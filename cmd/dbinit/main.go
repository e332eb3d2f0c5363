package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/viviztech/voterapp/internal/common"
	"github.com/viviztech/voterapp/internal/store"
)

// dbinit drops and recreates the pipeline schema. Destructive: any extracted
// voters and logs are lost.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.HealthCheck(ctx, 3*time.Second); err != nil {
		logger.Error("store health check failed", "error", err)
		os.Exit(1)
	}

	if err := st.Provision(ctx); err != nil {
		logger.Error("provision schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database initialized successfully", "dsn", cfg.Database.DSN)
}
