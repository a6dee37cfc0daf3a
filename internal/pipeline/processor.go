// Package pipeline drives documents through extraction, record building and
// validation, and settles job completion.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/blobstore"
	"github.com/cliniq-health/cliniq/internal/common"
	"github.com/cliniq-health/cliniq/internal/entity"
	"github.com/cliniq-health/cliniq/internal/extract"
	"github.com/cliniq-health/cliniq/internal/fhir"
	"github.com/cliniq-health/cliniq/internal/queue"
	"github.com/cliniq-health/cliniq/internal/repository"
	"github.com/cliniq-health/cliniq/internal/validate"
)

// Processor coordinates the per-document stages. Each stage transition is a
// guarded repository update, so re-processing a unit resumes from the stage
// the document last reached instead of repeating finished work.
type Processor struct {
	logger    *slog.Logger
	jobs      repository.JobRepository
	docs      repository.DocumentRepository
	audit     repository.AuditRepository
	blobs     blobstore.Store
	extractor *extract.Adapter
	validator *validate.Validator
}

func NewProcessor(
	logger *slog.Logger,
	jobs repository.JobRepository,
	docs repository.DocumentRepository,
	audit repository.AuditRepository,
	blobs blobstore.Store,
	extractor *extract.Adapter,
	validator *validate.Validator,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		jobs:      jobs,
		docs:      docs,
		audit:     audit,
		blobs:     blobs,
		extractor: extractor,
		validator: validator,
	}
}

// ProcessDocument drives one document through its remaining stages and then
// settles the owning job. A unit for an already-terminal document is a
// no-op apart from the completion check.
func (p *Processor) ProcessDocument(ctx context.Context, unit queue.WorkUnit) error {
	doc, err := p.docs.GetByID(ctx, unit.DocumentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", unit.DocumentID, err)
	}
	if doc.Status.Terminal() {
		p.logger.Debug("document already settled", "document_id", doc.ID, "status", doc.Status)
		return p.settleJob(ctx, doc.JobID)
	}

	if err := p.jobs.MarkProcessing(ctx, doc.JobID); err != nil {
		p.logger.Warn("could not mark job processing", "job_id", doc.JobID, "error", err)
	}

	if doc.Status == constants.DocStatusQueued {
		if err := p.docs.MarkExtracting(ctx, doc.ID); err != nil {
			return err
		}
		doc.Status = constants.DocStatusExtracting
	}

	if doc.Status == constants.DocStatusExtracting {
		if err := p.runExtraction(ctx, doc); err != nil {
			return p.failDocument(ctx, doc, err)
		}
	}

	if doc.Status == constants.DocStatusClassified {
		if err := p.runRecordBuild(ctx, doc); err != nil {
			return p.failDocument(ctx, doc, err)
		}
	}

	if doc.Status == constants.DocStatusBuilt {
		if err := p.runValidation(ctx, doc); err != nil {
			return p.failDocument(ctx, doc, err)
		}
	}

	return p.settleJob(ctx, doc.JobID)
}

func (p *Processor) runExtraction(ctx context.Context, doc *entity.Document) error {
	data, err := p.blobs.Get(ctx, BlobKey(doc.ID))
	if err != nil {
		return common.NewAppError(common.KindInternal, "load document payload", err)
	}

	res, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return err
	}

	fields, err := json.Marshal(res.Fields)
	if err != nil {
		return common.NewAppError(common.KindInternal, "marshal extracted fields", err)
	}
	if err := p.docs.SetClassified(ctx, doc.ID, res.DocType, fields); err != nil {
		return err
	}

	doc.DocType = &res.DocType
	doc.ExtractedData = fields
	doc.Status = constants.DocStatusClassified
	p.logger.Info("document classified", "document_id", doc.ID, "doc_type", res.DocType)
	return nil
}

func (p *Processor) runRecordBuild(ctx context.Context, doc *entity.Document) error {
	fields, err := doc.Fields()
	if err != nil {
		return common.NewAppError(common.KindInternal, "decode extracted fields", err)
	}

	record, err := fhir.Build(doc.TypeOrDefault(), fields)
	if err != nil {
		return err
	}
	if err := p.docs.SetBuilt(ctx, doc.ID, record); err != nil {
		return err
	}

	doc.FHIRRecord = record
	doc.Status = constants.DocStatusBuilt
	p.logger.Info("record built", "document_id", doc.ID, "doc_type", doc.TypeOrDefault())
	return nil
}

func (p *Processor) runValidation(ctx context.Context, doc *entity.Document) error {
	report, err := p.validator.Validate(doc.TypeOrDefault(), doc.FHIRRecord)
	if err != nil {
		return common.NewAppError(common.KindInternal, "validate record", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return common.NewAppError(common.KindInternal, "marshal validation report", err)
	}

	confidence := documentConfidence(doc)
	if err := p.docs.SetValidated(ctx, doc.ID, reportJSON, report.Verdict, confidence); err != nil {
		return err
	}

	doc.Status = constants.DocStatusValidated
	p.logger.Info("document validated",
		"document_id", doc.ID, "verdict", report.Verdict, "confidence", confidence)
	return nil
}

// failDocument records the terminal failure and still settles the job: a
// failed document must not hold its siblings' job open.
func (p *Processor) failDocument(ctx context.Context, doc *entity.Document, cause error) error {
	kind := common.KindOf(cause)
	if err := p.docs.MarkFailed(ctx, doc.ID, kind, cause.Error()); err != nil {
		p.logger.Error("could not mark document failed", "document_id", doc.ID, "error", err)
	}

	payload := map[string]any{
		"document_id": doc.ID.String(),
		"kind":        kind,
		"message":     cause.Error(),
	}
	if err := p.audit.Append(ctx, doc.JobID, entity.AuditDocumentFailed, payload); err != nil {
		p.logger.Error("could not append audit entry", "job_id", doc.JobID, "error", err)
	}
	if kind == common.KindExtractionUnconfigured {
		if err := p.audit.Append(ctx, doc.JobID, entity.AuditExtractionUnconfigured, nil); err != nil {
			p.logger.Error("could not append audit entry", "job_id", doc.JobID, "error", err)
		}
	}

	if err := p.settleJob(ctx, doc.JobID); err != nil {
		p.logger.Error("could not settle job after failure", "job_id", doc.JobID, "error", err)
	}
	return cause
}

// settleJob completes the job when every owned document is terminal. The
// decision re-reads document states inside the update statement.
func (p *Processor) settleJob(ctx context.Context, jobID uuid.UUID) error {
	done, err := p.jobs.CompleteIfDone(ctx, jobID, time.Now().UTC())
	if err != nil {
		return err
	}
	if done {
		if err := p.audit.Append(ctx, jobID, entity.AuditJobCompleted, nil); err != nil {
			p.logger.Error("could not append audit entry", "job_id", jobID, "error", err)
		}
	}
	return nil
}

// documentConfidence takes a genuine model-reported score from the field
// map when one is present and in range, otherwise the fixed placeholder.
func documentConfidence(doc *entity.Document) float64 {
	fields, err := doc.Fields()
	if err != nil {
		return constants.PlaceholderConfidence
	}
	if v, ok := fields["confidence"].(float64); ok && v >= 0 && v <= 1 {
		return v
	}
	return constants.PlaceholderConfidence
}

// BlobKey names the stored payload for a document.
func BlobKey(id uuid.UUID) string {
	return id.String() + constants.DocumentExt
}
