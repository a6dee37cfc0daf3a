// Package export produces downloadable artifacts: single-document FHIR
// records and the job history workbook.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/cliniq-health/cliniq/internal/common"
	"github.com/cliniq-health/cliniq/internal/repository"
)

// Service is a tiny façade over repositories that renders export payloads.
type Service struct {
	jobs   repository.JobRepository
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(jobs repository.JobRepository, docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, docs: docs, logger: logger}
}

// FHIRRecord returns the canonical record for one document along with the
// download filename. Documents that never reached the build stage have no
// record to export.
func (s *Service) FHIRRecord(ctx context.Context, docID uuid.UUID) (string, []byte, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, common.ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("load document %s: %w", docID, err)
	}
	if len(doc.FHIRRecord) == 0 {
		return "", nil, common.ErrNoRecord
	}
	return doc.ID.String() + ".json", doc.FHIRRecord, nil
}

// JobHistoryXLSX returns an XLSX workbook (as bytes) listing every job.
func (s *Service) JobHistoryXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Jobs"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Job ID",
		"Status",
		"Created At",
		"Completed At",
		"Documents",
		"Avg Confidence",
		"Processing Seconds",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, j.ID.String())
		write(2, string(j.Status))
		write(3, j.CreatedAt.UTC().Format(time.RFC3339))
		if j.CompletedAt != nil {
			write(4, j.CompletedAt.UTC().Format(time.RFC3339))
		} else {
			write(4, "")
		}
		write(5, j.DocumentCount)
		if j.AvgConfidence != nil {
			write(6, *j.AvgConfidence)
		} else {
			write(6, "")
		}
		if secs := j.ProcessingSeconds(); secs != nil {
			write(7, *secs)
		} else {
			write(7, "")
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // job id
	_ = f.SetColWidth(sheet, "B", "B", 12)
	_ = f.SetColWidth(sheet, "C", "D", 22) // timestamps
	_ = f.SetColWidth(sheet, "E", "G", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
