// Package server exposes the HTTP boundary: uploads, job and document
// inspection, exports and analytics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cliniq-health/cliniq/internal/analytics"
	"github.com/cliniq-health/cliniq/internal/blobstore"
	"github.com/cliniq-health/cliniq/internal/export"
	"github.com/cliniq-health/cliniq/internal/queue"
	"github.com/cliniq-health/cliniq/internal/repository"
	"github.com/cliniq-health/cliniq/internal/validate"
)

// Server wires the gin router to the application services.
type Server struct {
	router    *gin.Engine
	logger    *zap.Logger
	jobs      repository.JobRepository
	docs      repository.DocumentRepository
	audit     repository.AuditRepository
	blobs     blobstore.Store
	queue     queue.Queue
	validator *validate.Validator
	exports   *export.Service
	analytics *analytics.Service

	http *http.Server
}

func NewServer(
	logger *zap.Logger,
	jobs repository.JobRepository,
	docs repository.DocumentRepository,
	audit repository.AuditRepository,
	blobs blobstore.Store,
	q queue.Queue,
	validator *validate.Validator,
	exports *export.Service,
	analyticsSvc *analytics.Service,
) *Server {
	s := &Server{
		router:    gin.Default(),
		logger:    logger,
		jobs:      jobs,
		docs:      docs,
		audit:     audit,
		blobs:     blobs,
		queue:     q,
		validator: validator,
		exports:   exports,
		analytics: analyticsSvc,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		api.POST("/upload", s.handleUpload)

		api.GET("/jobs", s.handleListJobs)
		api.GET("/jobs/:id", s.handleGetJob)
		api.GET("/jobs/:id/audit", s.handleJobAudit)

		api.GET("/documents/:id", s.handleGetDocument)
		api.PATCH("/documents/:id/extracted", s.handlePatchDocument)
		api.POST("/documents/:id/validate", s.handleValidateDocument)
		api.GET("/documents/:id/validation", s.handleGetValidation)

		api.POST("/export", s.handleExport)
		api.GET("/analytics", s.handleAnalytics)
		api.GET("/analytics/report", s.handleAnalyticsReport)
	}
}

// Router exposes the engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains with the given
// grace period.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	s.http = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// detail is the error body shape shared by every endpoint.
func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}
