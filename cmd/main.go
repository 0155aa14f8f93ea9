package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/gameadmin/internal/cli"
	"github.com/kkkkikiki/gameadmin/internal/config"
	"github.com/kkkkikiki/gameadmin/internal/logger"
	"github.com/kkkkikiki/gameadmin/internal/metrics"
	"github.com/kkkkikiki/gameadmin/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Stop on interrupt so an open menu or batch can finish its current write
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to create logger: %v\n", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	log = log.With(zap.String("run_id", uuid.NewString()), zap.String("environment", cfg.App.Environment))

	root := cli.NewRootCommand(cli.Options{
		Open: func(ctx context.Context) (store.Store, error) {
			return store.Open(ctx, cfg, log)
		},
		Log: log,
		In:  os.Stdin,
		Out: os.Stdout,
	})

	err = root.ExecuteContext(ctx)
	pushMetrics(cfg.Metrics, log)

	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrReported):
		return 1
	}

	log.Error("command failed", zap.Error(err))
	if help := cli.Remediation(err); help != "" {
		fmt.Fprint(os.Stderr, "\n"+help)
	} else {
		fmt.Fprintf(os.Stderr, "\n❌ Error: %v\n", err)
	}
	return 1
}

func pushMetrics(cfg config.MetricsConfig, log *zap.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metrics.Push(ctx, cfg.PushgatewayURL, cfg.Job); err != nil {
		log.Warn("failed to push metrics", zap.Error(err))
	}
}
