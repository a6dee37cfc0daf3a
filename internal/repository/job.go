package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/entity"
)

// JobTiming carries the timestamps needed for turnaround statistics.
type JobTiming struct {
	CreatedAt   time.Time
	CompletedAt time.Time
}

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	List(ctx context.Context) ([]*entity.Job, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	// CompleteIfDone marks the job completed only when no owned document
	// remains in a non-terminal state. The document re-read happens inside
	// the statement, so completion is never based on an in-memory count.
	CompleteIfDone(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
	Count(ctx context.Context) (int, error)
	CompletionTimes(ctx context.Context) ([]JobTiming, error)
}

type jobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewJobRepository(db *sql.DB, logger *slog.Logger) JobRepository {
	return &jobRepository{db: db, logger: logger}
}

const jobColumns = `j.id, j.status, j.created_at, j.completed_at, j.document_count,
	(SELECT AVG(d.confidence) FROM documents d WHERE d.job_id = j.id)`

func (r *jobRepository) Create(ctx context.Context, job *entity.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, created_at, document_count) VALUES ($1, $2, $3, $4)`,
		job.ID.String(), string(job.Status), job.CreatedAt, job.DocumentCount)
	if err != nil {
		r.logger.Error("job create failed", "job_id", job.ID, "error", err)
		return err
	}
	r.logger.Info("job created", "job_id", job.ID, "document_count", job.DocumentCount)
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, id.String())
	return scanJob(row)
}

func (r *jobRepository) List(ctx context.Context) ([]*entity.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs j ORDER BY j.created_at DESC, j.id`)
	if err != nil {
		r.logger.Error("job list failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *jobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = 'processing' WHERE id = $1 AND status = 'queued'`,
		id.String())
	return err
}

func (r *jobRepository) CompleteIfDone(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = 'completed', completed_at = $1
		 WHERE id = $2
		   AND status <> 'completed'
		   AND NOT EXISTS (
		       SELECT 1 FROM documents
		       WHERE job_id = $3 AND status NOT IN ('validated', 'failed'))`,
		completedAt, id.String(), id.String())
	if err != nil {
		r.logger.Error("job completion check failed", "job_id", id, "error", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		r.logger.Info("job completed", "job_id", id)
	}
	return n > 0, nil
}

func (r *jobRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	return n, err
}

func (r *jobRepository) CompletionTimes(ctx context.Context) ([]JobTiming, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT created_at, completed_at FROM jobs WHERE completed_at IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobTiming
	for rows.Next() {
		var t JobTiming
		if err := rows.Scan(&t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.Job, error) {
	var (
		idStr       string
		status      string
		createdAt   time.Time
		completedAt sql.NullTime
		count       int
		avgConf     sql.NullFloat64
	)
	if err := row.Scan(&idStr, &status, &createdAt, &completedAt, &count, &avgConf); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	job := &entity.Job{
		ID:            id,
		Status:        constants.JobStatus(status),
		CreatedAt:     createdAt,
		DocumentCount: count,
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if avgConf.Valid {
		v := avgConf.Float64
		job.AvgConfidence = &v
	}
	return job, nil
}
