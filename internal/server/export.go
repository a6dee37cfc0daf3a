package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cliniq-health/cliniq/internal/common"
)

// handleExport streams the canonical FHIR record for one document as a
// download.
func (s *Server) handleExport(c *gin.Context) {
	var body struct {
		DocumentID string `json:"document_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusBadRequest, "body must carry 'document_id'")
		return
	}
	id, err := uuid.Parse(body.DocumentID)
	if err != nil {
		detail(c, http.StatusBadRequest, "invalid document id")
		return
	}

	name, record, err := s.exports.FHIRRecord(c.Request.Context(), id)
	switch {
	case errors.Is(err, common.ErrNotFound):
		detail(c, http.StatusNotFound, "document not found")
		return
	case errors.Is(err, common.ErrNoRecord):
		detail(c, http.StatusBadRequest, common.ErrNoRecord.Error())
		return
	case err != nil:
		s.logger.Error("export failed", zap.String("document_id", id.String()), zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not export record")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/fhir+json", record)
}

func (s *Server) handleAnalytics(c *gin.Context) {
	stats, err := s.analytics.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("analytics failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not compute statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleAnalyticsReport serves the job history workbook.
func (s *Server) handleAnalyticsReport(c *gin.Context) {
	data, err := s.exports.JobHistoryXLSX(c.Request.Context())
	if err != nil {
		s.logger.Error("report export failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "could not build report")
		return
	}

	name := fmt.Sprintf("job-history-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
