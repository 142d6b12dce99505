// Command sustainlog-server starts the action anchoring HTTP server and the
// notarization worker.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/karlsjo/sustainlog/internal/config"
	pkgcrypto "github.com/karlsjo/sustainlog/internal/crypto"
	"github.com/karlsjo/sustainlog/internal/migrate"
	"github.com/karlsjo/sustainlog/internal/notary"
	"github.com/karlsjo/sustainlog/internal/repository/postgres"
	httpserver "github.com/karlsjo/sustainlog/internal/server/http"
	"github.com/karlsjo/sustainlog/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server with
// the notarization worker alongside.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	key, err := cfg.Key()
	if err != nil {
		logger.Fatal("encryption key", zap.Error(err))
	}
	cipher, err := pkgcrypto.New(key)
	if err != nil {
		logger.Fatal("cipher init", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	actionRepo := postgres.NewActionRepo(db)
	ownerRepo := postgres.NewOwnerRepo(db)
	queueRepo := postgres.NewNotaryQueueRepo(db)

	// Notarization worker
	client := notary.NewClient(cfg.NotaryURL, cfg.NotaryTimeout)
	worker := notary.NewWorker(queueRepo, client, cfg.WorkerInterval, cfg.NotaryMaxAttempts, logger)

	// Services
	actionSvc := service.NewActionService(actionRepo, ownerRepo, cipher, worker.Nudge, logger)

	srv := httpserver.New(httpserver.Config{
		Addr:           cfg.Addr,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, actionSvc, []byte(cfg.JWTKey), logger)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	go worker.Run(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.Start()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
		// Let an in-flight settlement call finish before stopping the worker.
		time.Sleep(100 * time.Millisecond)
		cancelWorker()
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
