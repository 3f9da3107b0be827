package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/storage"
	"ledger/internal/worker"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (default ./ledger.yaml if present)")
	flag.Parse()

	cfg := cli.MustLoadConfig(*configFile, (*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting ledger-worker", log.FieldOperation, log.OpStartup)

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	auditWorker := worker.NewAuditWorker(repo)
	caches := cache.NewManager()
	caches.Register(auditWorker.Cleaner())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.ConsumeAudit(ctx, auditWorker.HandleAuditMessage); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			cancel()
		}
	}()

	logger.Info("Consuming audit events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	<-ctx.Done()
	<-done
	logger.Info("Worker stopped", log.FieldOperation, log.OpShutdown)
}
