package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cliniq-health/cliniq/internal/analytics"
	"github.com/cliniq-health/cliniq/internal/blobstore"
	"github.com/cliniq-health/cliniq/internal/common"
	"github.com/cliniq-health/cliniq/internal/export"
	"github.com/cliniq-health/cliniq/internal/extract"
	"github.com/cliniq-health/cliniq/internal/extract/llm"
	"github.com/cliniq-health/cliniq/internal/pipeline"
	"github.com/cliniq-health/cliniq/internal/queue"
	"github.com/cliniq-health/cliniq/internal/repository"
	"github.com/cliniq-health/cliniq/internal/server"
	"github.com/cliniq-health/cliniq/internal/validate"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Env
	if err := godotenv.Load(); err == nil {
		log.Info("loaded .env file")
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, pool, err := repository.Open(ctx, cfg.Database, slogger)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer repository.Close(db, pool, slogger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database, slogger); err != nil {
		log.Fatalf("DB health failed: %v", err)
	}
	if err := repository.Migrate(db, slogger); err != nil {
		log.Fatalf("applying migrations: %v", err)
	}

	jobs := repository.NewJobRepository(db, slogger)
	docs := repository.NewDocumentRepository(db, slogger)
	audit := repository.NewAuditRepository(db, slogger)

	// Document payload storage
	var blobs blobstore.Store
	if cfg.Blob.MinioEndpoint != "" {
		blobs, err = blobstore.NewMinioStore(ctx, cfg.Blob, slogger)
		if err != nil {
			log.Fatalf("connecting to object store: %v", err)
		}
	} else {
		blobs, err = blobstore.NewFSStore(cfg.Blob.Dir)
		if err != nil {
			log.Fatalf("preparing blob dir: %v", err)
		}
	}

	// Work queue
	var q queue.Queue
	if cfg.Queue.RedisAddr != "" {
		q, err = queue.NewRedisQueue(ctx, cfg.Queue, slogger)
		if err != nil {
			log.Fatalf("connecting to redis: %v", err)
		}
	} else {
		q = queue.NewMemoryQueue(cfg.Queue.Size)
	}
	defer q.Close()

	// Pipeline collaborators
	validator, err := validate.NewValidator(cfg.Ruleset, slogger)
	if err != nil {
		log.Fatalf("loading validation ruleset: %v", err)
	}
	adapter := extract.NewAdapter(
		extract.NewTextClient(cfg.TextExtract, slogger),
		llm.NewClient(cfg.LLM, slogger),
		slogger,
	)

	proc := pipeline.NewProcessor(slogger, jobs, docs, audit, blobs, adapter, validator)
	workers := pipeline.NewPool(proc, q, slogger,
		pipeline.WithWorkers(cfg.Queue.Workers),
		pipeline.WithProcessTimeout(cfg.Queue.ProcessTimeout))
	workers.Start(ctx)

	// HTTP boundary
	srv := server.NewServer(logger,
		jobs, docs, audit, blobs, q, validator,
		export.NewService(jobs, docs, slogger),
		analytics.NewService(jobs, docs, slogger))

	log.Infof("serving on %s", cfg.Server.Addr)
	if err := srv.Run(ctx, cfg.Server.Addr, 10*time.Second); err != nil {
		log.Errorf("http server: %v", err)
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	workers.Shutdown(shutdownCtx)
	log.Info("stopped.")
}
