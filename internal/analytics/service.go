// Package analytics aggregates pipeline statistics across all jobs.
package analytics

import (
	"context"
	"log/slog"
	"math"

	"github.com/cliniq-health/cliniq/internal/repository"
)

// Stats is the aggregate view served by the analytics endpoint. Percentages
// are 0-100, rounded to two decimals.
type Stats struct {
	TotalJobs      int     `json:"total_jobs"`
	AvgConfidence  float64 `json:"avg_confidence"`
	PassRate       float64 `json:"pass_rate"`
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
}

type Service struct {
	jobs   repository.JobRepository
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(jobs repository.JobRepository, docs repository.DocumentRepository, logger *slog.Logger) *Service {
	return &Service{jobs: jobs, docs: docs, logger: logger}
}

// Stats computes the aggregate numbers. Every ratio is zero-guarded: with
// no data the figure is 0, never NaN.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.jobs.Count(ctx)
	if err != nil {
		return nil, err
	}

	out := &Stats{TotalJobs: total}

	avg, err := s.docs.AvgConfidence(ctx)
	if err != nil {
		return nil, err
	}
	if avg != nil {
		out.AvgConfidence = round2(*avg * 100)
	}

	counts, err := s.docs.CountValidation(ctx)
	if err != nil {
		return nil, err
	}
	if counts.Reported > 0 {
		out.PassRate = round2(float64(counts.Passed) / float64(counts.Reported) * 100)
	}

	timings, err := s.jobs.CompletionTimes(ctx)
	if err != nil {
		return nil, err
	}
	if len(timings) > 0 {
		var sum float64
		for _, t := range timings {
			sum += t.CompletedAt.Sub(t.CreatedAt).Seconds()
		}
		out.AvgTimeSeconds = round2(sum / float64(len(timings)))
	}

	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
