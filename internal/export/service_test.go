package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
	"github.com/cliniq-health/cliniq/internal/entity"
	"github.com/cliniq-health/cliniq/internal/repository"
)

type stubDocs struct {
	repository.DocumentRepository
	docs map[uuid.UUID]*entity.Document
	err  error
}

func (s *stubDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

type stubJobs struct {
	repository.JobRepository
	jobs []*entity.Job
}

func (s *stubJobs) List(context.Context) ([]*entity.Job, error) {
	return s.jobs, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFHIRRecord(t *testing.T) {
	record := json.RawMessage(`{"resourceType":"DiagnosticReport"}`)
	withRecord := &entity.Document{ID: uuid.New(), FHIRRecord: record}
	withoutRecord := &entity.Document{ID: uuid.New()}
	svc := NewService(&stubJobs{}, &stubDocs{docs: map[uuid.UUID]*entity.Document{
		withRecord.ID:    withRecord,
		withoutRecord.ID: withoutRecord,
	}}, testLogger())
	ctx := context.Background()

	name, data, err := svc.FHIRRecord(ctx, withRecord.ID)
	require.NoError(t, err)
	assert.Equal(t, withRecord.ID.String()+".json", name)
	assert.JSONEq(t, string(record), string(data))

	_, _, err = svc.FHIRRecord(ctx, withoutRecord.ID)
	assert.ErrorIs(t, err, common.ErrNoRecord)

	_, _, err = svc.FHIRRecord(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFHIRRecordRepositoryError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&stubJobs{}, &stubDocs{err: boom}, testLogger())

	// A transient storage failure must not look like a missing document.
	_, _, err := svc.FHIRRecord(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, err, boom)
}

func TestJobHistoryXLSX(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(42 * time.Second)
	conf := 0.91
	svc := NewService(&stubJobs{jobs: []*entity.Job{
		{
			ID:            uuid.New(),
			Status:        constants.JobStatusCompleted,
			CreatedAt:     created,
			CompletedAt:   &completed,
			DocumentCount: 2,
			AvgConfidence: &conf,
		},
		{
			ID:            uuid.New(),
			Status:        constants.JobStatusProcessing,
			CreatedAt:     created,
			DocumentCount: 1,
		},
	}}, &stubDocs{}, testLogger())

	data, err := svc.JobHistoryXLSX(context.Background())
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per job")
	assert.Equal(t, "Job ID", rows[0][0])
	assert.Equal(t, "completed", rows[1][1])
	assert.Equal(t, "processing", rows[2][1])
}
