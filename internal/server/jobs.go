package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cliniq-health/cliniq/internal/entity"
)

// maxSummaryKeys bounds the extracted-field key preview on job views.
const maxSummaryKeys = 10

type jobView struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	CreatedAt         string   `json:"created_at"`
	CompletedAt       *string  `json:"completed_at,omitempty"`
	DocumentCount     int      `json:"document_count"`
	AvgConfidence     *float64 `json:"avg_confidence,omitempty"`
	ProcessingSeconds *float64 `json:"processing_seconds,omitempty"`
}

type documentSummary struct {
	ID            string   `json:"id"`
	Filename      string   `json:"filename"`
	DocType       *string  `json:"doc_type,omitempty"`
	Status        string   `json:"status"`
	Confidence    *float64 `json:"confidence,omitempty"`
	Verdict       *string  `json:"validation_verdict,omitempty"`
	ErrorKind     *string  `json:"error_kind,omitempty"`
	ExtractedKeys []string `json:"extracted_keys,omitempty"`
}

func toJobView(j *entity.Job) jobView {
	v := jobView{
		ID:            j.ID.String(),
		Status:        string(j.Status),
		CreatedAt:     j.CreatedAt.UTC().Format(time.RFC3339),
		DocumentCount: j.DocumentCount,
		AvgConfidence: j.AvgConfidence,
	}
	if j.CompletedAt != nil {
		s := j.CompletedAt.UTC().Format(time.RFC3339)
		v.CompletedAt = &s
	}
	v.ProcessingSeconds = j.ProcessingSeconds()
	return v
}

func toDocumentSummary(d *entity.Document) documentSummary {
	s := documentSummary{
		ID:         d.ID.String(),
		Filename:   d.Filename,
		Status:     string(d.Status),
		Confidence: d.Confidence,
		Verdict:    d.ValidationVerdict,
		ErrorKind:  d.ErrorKind,
	}
	if d.DocType != nil {
		t := string(*d.DocType)
		s.DocType = &t
	}
	if fields, err := d.Fields(); err == nil && len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > maxSummaryKeys {
			keys = keys[:maxSummaryKeys]
		}
		s.ExtractedKeys = keys
	}
	return s
}

func (s *Server) handleListJobs(c *gin.Context) {
	jobs, err := s.jobs.List(c.Request.Context())
	if err != nil {
		s.logger.Error("job list failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not list jobs")
		return
	}

	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, toJobView(j))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": views})
}

func (s *Server) handleGetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusBadRequest, "invalid job id")
		return
	}

	ctx := c.Request.Context()
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		detail(c, http.StatusNotFound, "job not found")
		return
	}

	docs, err := s.docs.ListByJob(ctx, id)
	if err != nil {
		s.logger.Error("document list failed", zap.String("job_id", id.String()), zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not list documents")
		return
	}

	summaries := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, toDocumentSummary(d))
	}

	c.JSON(http.StatusOK, gin.H{
		"job":       toJobView(job),
		"documents": summaries,
	})
}

func (s *Server) handleJobAudit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusBadRequest, "invalid job id")
		return
	}

	ctx := c.Request.Context()
	if _, err := s.jobs.GetByID(ctx, id); err != nil {
		detail(c, http.StatusNotFound, "job not found")
		return
	}

	entries, err := s.audit.ListByJob(ctx, id)
	if err != nil {
		s.logger.Error("audit list failed", zap.String("job_id", id.String()), zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not list audit entries")
		return
	}

	type auditView struct {
		Event     string `json:"event"`
		Payload   string `json:"payload,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	views := make([]auditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditView{
			Event:     e.Event,
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": views})
}
