package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/entity"
)

// ValidationCounts summarizes validation outcomes across all documents.
type ValidationCounts struct {
	Reported int // documents with any validation report
	Passed   int // documents whose verdict is "ok"
}

// DocumentRepository persists per-document pipeline state. Stage transitions
// are single-row, status-guarded updates; a guard mismatch means a racing or
// out-of-order transition and is reported as an error.
type DocumentRepository interface {
	CreateBatch(ctx context.Context, docs []*entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Document, error)
	ListUnfinishedByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Document, error)

	MarkExtracting(ctx context.Context, id uuid.UUID) error
	SetClassified(ctx context.Context, id uuid.UUID, docType constants.DocType, fields json.RawMessage) error
	SetBuilt(ctx context.Context, id uuid.UUID, record json.RawMessage) error
	SetValidated(ctx context.Context, id uuid.UUID, report json.RawMessage, verdict string, confidence float64) error
	MarkFailed(ctx context.Context, id uuid.UUID, kind, message string) error

	// ReplaceExtracted swaps in a caller-supplied field map and freshly built
	// record, clearing any validation report that described the old record.
	ReplaceExtracted(ctx context.Context, id uuid.UUID, fields, record json.RawMessage) error
	SetValidationReport(ctx context.Context, id uuid.UUID, report json.RawMessage, verdict string) error

	AvgConfidence(ctx context.Context) (*float64, error)
	CountValidation(ctx context.Context) (ValidationCounts, error)
}

type documentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) DocumentRepository {
	return &documentRepository{db: db, logger: logger}
}

func (r *documentRepository) CreateBatch(ctx context.Context, docs []*entity.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range docs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, job_id, filename, status, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			d.ID.String(), d.JobID.String(), d.Filename, string(d.Status), d.CreatedAt)
		if err != nil {
			r.logger.Error("document insert failed", "document_id", d.ID, "error", err)
			return err
		}
	}
	return tx.Commit()
}

const documentColumns = `id, job_id, filename, doc_type, status, confidence,
	extracted_data, fhir_record, validation_report, validation_verdict,
	error_kind, error_message, created_at`

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id.String())
	return scanDocument(row)
}

func (r *documentRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Document, error) {
	return r.listByJob(ctx, jobID, false)
}

func (r *documentRepository) ListUnfinishedByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Document, error) {
	return r.listByJob(ctx, jobID, true)
}

func (r *documentRepository) listByJob(ctx context.Context, jobID uuid.UUID, unfinishedOnly bool) ([]*entity.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE job_id = $1`
	if unfinishedOnly {
		q += ` AND status NOT IN ('validated', 'failed')`
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, q, jobID.String())
	if err != nil {
		r.logger.Error("document list failed", "job_id", jobID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *documentRepository) MarkExtracting(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = 'extracting' WHERE id = $1 AND status = 'queued'`,
		id.String())
	return err
}

func (r *documentRepository) SetClassified(ctx context.Context, id uuid.UUID, docType constants.DocType, fields json.RawMessage) error {
	return r.guarded(ctx, id, "classified",
		`UPDATE documents SET doc_type = $1, extracted_data = $2, status = 'classified'
		 WHERE id = $3 AND status = 'extracting'`,
		string(docType), []byte(fields), id.String())
}

func (r *documentRepository) SetBuilt(ctx context.Context, id uuid.UUID, record json.RawMessage) error {
	return r.guarded(ctx, id, "built",
		`UPDATE documents SET fhir_record = $1, status = 'built'
		 WHERE id = $2 AND status = 'classified'`,
		[]byte(record), id.String())
}

func (r *documentRepository) SetValidated(ctx context.Context, id uuid.UUID, report json.RawMessage, verdict string, confidence float64) error {
	return r.guarded(ctx, id, "validated",
		`UPDATE documents SET validation_report = $1, validation_verdict = $2,
		        confidence = $3, status = 'validated'
		 WHERE id = $4 AND status = 'built'`,
		[]byte(report), verdict, confidence, id.String())
}

func (r *documentRepository) MarkFailed(ctx context.Context, id uuid.UUID, kind, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = 'failed', error_kind = $1, error_message = $2
		 WHERE id = $3 AND status NOT IN ('validated', 'failed')`,
		kind, message, id.String())
	if err != nil {
		r.logger.Error("document fail-mark failed", "document_id", id, "error", err)
		return err
	}
	r.logger.Warn("document failed", "document_id", id, "kind", kind, "error", message)
	return nil
}

func (r *documentRepository) ReplaceExtracted(ctx context.Context, id uuid.UUID, fields, record json.RawMessage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET extracted_data = $1, fhir_record = $2,
		        validation_report = NULL, validation_verdict = NULL
		 WHERE id = $3`,
		[]byte(fields), []byte(record), id.String())
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *documentRepository) SetValidationReport(ctx context.Context, id uuid.UUID, report json.RawMessage, verdict string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET validation_report = $1, validation_verdict = $2
		 WHERE id = $3 AND fhir_record IS NOT NULL`,
		[]byte(report), verdict, id.String())
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *documentRepository) AvgConfidence(ctx context.Context) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT AVG(confidence) FROM documents`).Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	v := avg.Float64
	return &v, nil
}

func (r *documentRepository) CountValidation(ctx context.Context) (ValidationCounts, error) {
	var reported, passed sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(CASE WHEN validation_report IS NOT NULL THEN 1 ELSE 0 END),
		        SUM(CASE WHEN validation_verdict = 'ok' THEN 1 ELSE 0 END)
		 FROM documents`).Scan(&reported, &passed)
	if err != nil {
		return ValidationCounts{}, err
	}
	return ValidationCounts{Reported: int(reported.Int64), Passed: int(passed.Int64)}, nil
}

// guarded runs a status-guarded stage transition and surfaces guard misses.
func (r *documentRepository) guarded(ctx context.Context, id uuid.UUID, stage, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("document stage update failed", "document_id", id, "stage", stage, "error", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %s: stage conflict entering %s", id, stage)
	}
	r.logger.Debug("document stage committed", "document_id", id, "stage", stage)
	return nil
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %s: no matching row", id)
	}
	return nil
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		idStr, jobIDStr, filename, status string
		docType, verdict, errKind, errMsg sql.NullString
		confidence                        sql.NullFloat64
		extracted, record, report         []byte
		createdAt                         time.Time
	)
	err := row.Scan(&idStr, &jobIDStr, &filename, &docType, &status, &confidence,
		&extracted, &record, &report, &verdict, &errKind, &errMsg, &createdAt)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return nil, err
	}

	d := &entity.Document{
		ID:               id,
		JobID:            jobID,
		Filename:         filename,
		Status:           constants.DocumentStatus(status),
		ExtractedData:    extracted,
		FHIRRecord:       record,
		ValidationReport: report,
		CreatedAt:        createdAt,
	}
	if docType.Valid {
		t := constants.DocType(docType.String)
		d.DocType = &t
	}
	if confidence.Valid {
		v := confidence.Float64
		d.Confidence = &v
	}
	if verdict.Valid {
		d.ValidationVerdict = &verdict.String
	}
	if errKind.Valid {
		d.ErrorKind = &errKind.String
	}
	if errMsg.Valid {
		d.ErrorMessage = &errMsg.String
	}
	return d, nil
}
