// Command redrive re-enqueues the unfinished documents of a job. It exists
// for the in-process queue, whose pending work is lost on restart.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cliniq-health/cliniq/internal/common"
	"github.com/cliniq-health/cliniq/internal/queue"
	"github.com/cliniq-health/cliniq/internal/repository"
)

func main() {
	jobFlag := flag.String("job", "", "job id whose unfinished documents to re-enqueue (required)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *jobFlag == "" {
		log.Fatal("-job is required")
	}
	jobID, err := uuid.Parse(*jobFlag)
	if err != nil {
		log.Fatalf("invalid job id %q: %v", *jobFlag, err)
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		log.Fatal("DB_URL env var is required")
	}
	if cfg.Queue.RedisAddr == "" {
		log.Fatal("REDIS_ADDR env var is required: re-driving needs the durable queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, pool, err := repository.Open(ctx, cfg.Database, slogger)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer repository.Close(db, pool, slogger)

	q, err := queue.NewRedisQueue(ctx, cfg.Queue, slogger)
	if err != nil {
		log.Fatalf("connecting to redis: %v", err)
	}
	defer q.Close()

	jobs := repository.NewJobRepository(db, slogger)
	docs := repository.NewDocumentRepository(db, slogger)

	if _, err := jobs.GetByID(ctx, jobID); err != nil {
		log.Fatalf("job %s not found: %v", jobID, err)
	}

	pending, err := docs.ListUnfinishedByJob(ctx, jobID)
	if err != nil {
		log.Fatalf("listing documents: %v", err)
	}
	if len(pending) == 0 {
		log.Infof("job %s has no unfinished documents", jobID)
		return
	}

	for _, d := range pending {
		if err := q.Enqueue(ctx, queue.WorkUnit{JobID: jobID, DocumentID: d.ID}); err != nil {
			log.Fatalf("enqueue document %s: %v", d.ID, err)
		}
		log.Infow("re-enqueued document", "document_id", d.ID.String(), "status", string(d.Status))
	}
	log.Infof("re-enqueued %d documents for job %s", len(pending), jobID)
}
