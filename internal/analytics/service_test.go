package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniq-health/cliniq/internal/repository"
)

type stubJobs struct {
	repository.JobRepository
	count   int
	timings []repository.JobTiming
}

func (s *stubJobs) Count(context.Context) (int, error) {
	return s.count, nil
}

func (s *stubJobs) CompletionTimes(context.Context) ([]repository.JobTiming, error) {
	return s.timings, nil
}

type stubDocs struct {
	repository.DocumentRepository
	avg    *float64
	counts repository.ValidationCounts
}

func (s *stubDocs) AvgConfidence(context.Context) (*float64, error) {
	return s.avg, nil
}

func (s *stubDocs) CountValidation(context.Context) (repository.ValidationCounts, error) {
	return s.counts, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatsEmptySystem(t *testing.T) {
	svc := NewService(&stubJobs{}, &stubDocs{}, testLogger())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalJobs)
	assert.Zero(t, stats.AvgConfidence)
	assert.Zero(t, stats.PassRate)
	assert.Zero(t, stats.AvgTimeSeconds)
}

func TestStatsRoundingAndRatios(t *testing.T) {
	avg := 0.87654
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	jobs := &stubJobs{
		count: 3,
		timings: []repository.JobTiming{
			{CreatedAt: base, CompletedAt: base.Add(10 * time.Second)},
			{CreatedAt: base, CompletedAt: base.Add(15*time.Second + 500*time.Millisecond)},
		},
	}
	docs := &stubDocs{
		avg:    &avg,
		counts: repository.ValidationCounts{Reported: 3, Passed: 2},
	}
	svc := NewService(jobs, docs, testLogger())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalJobs)
	assert.InDelta(t, 87.65, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 66.67, stats.PassRate, 1e-9)
	assert.InDelta(t, 12.75, stats.AvgTimeSeconds, 1e-9)
}
