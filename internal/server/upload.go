package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/entity"
	"github.com/cliniq-health/cliniq/internal/pipeline"
	"github.com/cliniq-health/cliniq/internal/queue"
	"github.com/cliniq-health/cliniq/internal/unpack"
)

// handleUpload accepts a single PDF or a ZIP batch, creates the job and its
// documents, stores payloads, and enqueues one work unit per document.
func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		detail(c, http.StatusBadRequest, "cannot open uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		detail(c, http.StatusBadRequest, "cannot read uploaded file")
		return
	}

	it, err := unpack.Open(fileHeader.Filename, data)
	if err != nil {
		s.logger.Warn("upload rejected",
			zap.String("filename", fileHeader.Filename), zap.Error(err))
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	job := &entity.Job{
		ID:        uuid.New(),
		Status:    constants.JobStatusQueued,
		CreatedAt: now,
	}

	var docs []*entity.Document
	var payloads [][]byte
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		docs = append(docs, &entity.Document{
			ID:        uuid.New(),
			JobID:     job.ID,
			Filename:  entry.Name,
			Status:    constants.DocStatusQueued,
			CreatedAt: now,
		})
		payloads = append(payloads, entry.Data)
	}
	if err := it.Err(); err != nil {
		s.logger.Warn("upload rejected mid-archive",
			zap.String("filename", fileHeader.Filename), zap.Error(err))
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(docs) == 0 {
		detail(c, http.StatusBadRequest, "upload contains no eligible documents")
		return
	}
	job.DocumentCount = len(docs)

	ctx := c.Request.Context()
	if err := s.jobs.Create(ctx, job); err != nil {
		detail(c, http.StatusInternalServerError, "could not create job")
		return
	}
	if err := s.docs.CreateBatch(ctx, docs); err != nil {
		detail(c, http.StatusInternalServerError, "could not create documents")
		return
	}

	if err := s.audit.Append(ctx, job.ID, entity.AuditJobCreated, map[string]any{
		"filename":       fileHeader.Filename,
		"document_count": len(docs),
	}); err != nil {
		s.logger.Error("audit append failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	for i, d := range docs {
		if err := s.blobs.Put(ctx, pipeline.BlobKey(d.ID), payloads[i]); err != nil {
			s.logger.Error("blob store failed",
				zap.String("document_id", d.ID.String()), zap.Error(err))
			detail(c, http.StatusInternalServerError, "could not store document payload")
			return
		}
		if err := s.queue.Enqueue(ctx, queue.WorkUnit{JobID: job.ID, DocumentID: d.ID}); err != nil {
			s.logger.Error("enqueue failed",
				zap.String("document_id", d.ID.String()), zap.Error(err))
			detail(c, http.StatusInternalServerError, "could not enqueue document")
			return
		}
	}

	s.logger.Info("upload accepted",
		zap.String("job_id", job.ID.String()),
		zap.String("filename", fileHeader.Filename),
		zap.Int("document_count", len(docs)))

	c.JSON(http.StatusCreated, gin.H{
		"job_id":         job.ID.String(),
		"status":         string(job.Status),
		"document_count": len(docs),
	})
}
