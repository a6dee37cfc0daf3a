package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cliniq-health/cliniq/internal/entity"
)

// AuditRepository appends operational events to a job's audit trail.
// Entries are append-only; nothing outside job deletion removes them.
type AuditRepository interface {
	Append(ctx context.Context, jobID uuid.UUID, event string, payload any) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.AuditEntry, error)
}

type auditRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAuditRepository(db *sql.DB, logger *slog.Logger) AuditRepository {
	return &auditRepository{db: db, logger: logger}
}

func (r *auditRepository) Append(ctx context.Context, jobID uuid.UUID, event string, payload any) error {
	var body string
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			body = string(b)
		}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (job_id, event, payload, created_at) VALUES ($1, $2, $3, $4)`,
		jobID.String(), event, body, time.Now().UTC())
	if err != nil {
		r.logger.Error("audit append failed", "job_id", jobID, "event", event, "error", err)
		return err
	}
	r.logger.Info("audit event recorded", "job_id", jobID, "event", event)
	return nil
}

func (r *auditRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, job_id, event, payload, created_at FROM audit_logs
		 WHERE job_id = $1 ORDER BY id`, jobID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.AuditEntry
	for rows.Next() {
		var (
			e       entity.AuditEntry
			jidStr  string
			payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &jidStr, &e.Event, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		jid, err := uuid.Parse(jidStr)
		if err != nil {
			return nil, err
		}
		e.JobID = jid
		e.Payload = payload.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
