package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cliniq-health/cliniq/internal/common"
	"github.com/cliniq-health/cliniq/internal/entity"
	"github.com/cliniq-health/cliniq/internal/fhir"
)

type documentView struct {
	ID               string          `json:"id"`
	JobID            string          `json:"job_id"`
	Filename         string          `json:"filename"`
	DocType          *string         `json:"doc_type,omitempty"`
	Status           string          `json:"status"`
	Confidence       *float64        `json:"confidence,omitempty"`
	ExtractedData    json.RawMessage `json:"extracted_data,omitempty"`
	FHIRRecord       json.RawMessage `json:"fhir_record,omitempty"`
	ValidationReport json.RawMessage `json:"validation_report,omitempty"`
	Verdict          *string         `json:"validation_verdict,omitempty"`
	ErrorKind        *string         `json:"error_kind,omitempty"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	CreatedAt        string          `json:"created_at"`
}

func toDocumentView(d *entity.Document) documentView {
	v := documentView{
		ID:               d.ID.String(),
		JobID:            d.JobID.String(),
		Filename:         d.Filename,
		Status:           string(d.Status),
		Confidence:       d.Confidence,
		ExtractedData:    d.ExtractedData,
		FHIRRecord:       d.FHIRRecord,
		ValidationReport: d.ValidationReport,
		Verdict:          d.ValidationVerdict,
		ErrorKind:        d.ErrorKind,
		ErrorMessage:     d.ErrorMessage,
		CreatedAt:        d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.DocType != nil {
		t := string(*d.DocType)
		v.DocType = &t
	}
	return v
}

func (s *Server) loadDocument(c *gin.Context) (*entity.Document, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusBadRequest, "invalid document id")
		return nil, false
	}
	doc, err := s.docs.GetByID(c.Request.Context(), id)
	if err != nil {
		detail(c, http.StatusNotFound, "document not found")
		return nil, false
	}
	return doc, true
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, ok := s.loadDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toDocumentView(doc))
}

// handlePatchDocument replaces the extracted field map after human review
// and rebuilds the canonical record from it. The previous validation report
// described the old record, so it is cleared in the same update.
func (s *Server) handlePatchDocument(c *gin.Context) {
	doc, ok := s.loadDocument(c)
	if !ok {
		return
	}

	var body struct {
		ExtractedData map[string]any `json:"extracted_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusBadRequest, "body must carry an 'extracted_data' object")
		return
	}

	record, err := fhir.Build(doc.TypeOrDefault(), body.ExtractedData)
	if err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	fields, err := json.Marshal(body.ExtractedData)
	if err != nil {
		detail(c, http.StatusBadRequest, "extracted_data is not serializable")
		return
	}

	ctx := c.Request.Context()
	if err := s.docs.ReplaceExtracted(ctx, doc.ID, fields, record); err != nil {
		s.logger.Error("replace extracted failed",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not update document")
		return
	}

	updated, err := s.docs.GetByID(ctx, doc.ID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "could not reload document")
		return
	}
	c.JSON(http.StatusOK, toDocumentView(updated))
}

// handleValidateDocument re-runs ruleset validation against the current
// record on demand and persists the fresh report.
func (s *Server) handleValidateDocument(c *gin.Context) {
	doc, ok := s.loadDocument(c)
	if !ok {
		return
	}
	if len(doc.FHIRRecord) == 0 {
		detail(c, http.StatusBadRequest, common.ErrNoRecord.Error())
		return
	}

	report, err := s.validator.Validate(doc.TypeOrDefault(), doc.FHIRRecord)
	if err != nil {
		s.logger.Error("validation failed",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not validate record")
		return
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		detail(c, http.StatusInternalServerError, "could not serialize report")
		return
	}
	if err := s.docs.SetValidationReport(c.Request.Context(), doc.ID, reportJSON, report.Verdict); err != nil {
		s.logger.Error("store validation report failed",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not store report")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleGetValidation(c *gin.Context) {
	doc, ok := s.loadDocument(c)
	if !ok {
		return
	}
	if len(doc.ValidationReport) == 0 {
		detail(c, http.StatusNotFound, "document has no validation report")
		return
	}
	c.Data(http.StatusOK, "application/json", doc.ValidationReport)
}
