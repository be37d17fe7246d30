// Package stats exposes the read side of project reporting: aggregate
// figures, billable projections and per-period rate breakdowns, with a
// Redis cache in front of the aggregate path.
package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"freelancehub/internal/billing"
	"freelancehub/internal/cache"
	"freelancehub/internal/model"
	"freelancehub/internal/repository"
	"freelancehub/pkg/metrics"
)

type Service struct {
	projects  *repository.ProjectRepository
	intervals *repository.IntervalRepository
	payments  *repository.PaymentRepository
	cache     *cache.StatsCache
	logger    *zap.Logger
}

func NewService(
	projects *repository.ProjectRepository,
	intervals *repository.IntervalRepository,
	payments *repository.PaymentRepository,
	statsCache *cache.StatsCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		projects:  projects,
		intervals: intervals,
		payments:  payments,
		cache:     statsCache,
		logger:    logger,
	}
}

// ProjectStats returns the project's aggregate figures, from cache when
// possible. Ownership is checked before the cache so a foreign user
// cannot read another user's cached stats.
func (s *Service) ProjectStats(ctx context.Context, projectID, userID int) (*billing.Stats, error) {
	project, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	if cached := s.cache.Get(ctx, projectID); cached != nil {
		return cached, nil
	}

	start := time.Now()
	intervals, err := s.intervals.ListByProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	result := billing.ComputeStats(project, intervals, payments)
	metrics.RecordBillingComputeDuration("stats", time.Since(start))

	s.cache.Set(ctx, projectID, &result)
	return &result, nil
}

// BillableAmount projects what is owed for the tracked time under the
// project's billing mode. Not cached: it is read far less often than
// stats and shares no invalidation trigger with payments.
func (s *Service) BillableAmount(ctx context.Context, projectID, userID int) (float64, *model.Project, error) {
	project, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return 0, nil, err
	}
	intervals, err := s.intervals.ListByProject(ctx, projectID, userID)
	if err != nil {
		return 0, nil, err
	}

	start := time.Now()
	amount := billing.ComputeBillableAmount(project, intervals)
	metrics.RecordBillingComputeDuration("billable_amount", time.Since(start))

	return amount, project, nil
}

// PeriodRates returns the per-cycle breakdown for recurring-period
// projects. Any other billing mode yields an empty list, not an error.
func (s *Service) PeriodRates(ctx context.Context, projectID, userID int) ([]billing.PeriodRate, error) {
	project, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	intervals, err := s.intervals.ListByProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rates := billing.ComputePeriodRates(project, intervals)
	metrics.RecordBillingComputeDuration("period_rates", time.Since(start))

	return rates, nil
}
