package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/analytics"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"golang.org/x/sync/errgroup"
)

// AnalyticsResult wraps one computed aggregate.
type AnalyticsResult struct {
	Metric    analytics.Metric `json:"metric"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	AirportID string           `json:"airport_id,omitempty"`
	Data      interface{}      `json:"data"`
}

// CountResult is the payload of movements_count.
type CountResult struct {
	Count int `json:"count" csv:"count"`
}

// OccupancyResult is the payload of stand_occupancy.
type OccupancyResult struct {
	Percent     int `json:"percent" csv:"percent"`
	TotalStands int `json:"total_stands" csv:"total_stands"`
}

// AnalyticsService fetches the records a metric needs and runs the aggregation.
type AnalyticsService struct {
	repo AnalyticsRepository
}

func NewAnalyticsService(repo AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Run validates and executes one analytics query.
func (s *AnalyticsService) Run(ctx context.Context, q analytics.Query) (*AnalyticsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	result := &AnalyticsResult{
		Metric:    q.Metric,
		Start:     q.Filter.Start,
		End:       q.Filter.End,
		AirportID: q.Filter.AirportID,
	}

	switch q.Metric {
	case analytics.MetricRevenueDaily:
		invoices, err := s.repo.ListInvoices(ctx, q.Filter)
		if err != nil {
			return nil, dataAccess("list invoices", err)
		}
		result.Data = analytics.DailyRevenue(invoices, q.Filter, q.PaidOnly)
		return result, nil
	case analytics.MetricTopAircraftTypes:
		counts, err := s.repo.CountMovementsByAircraftType(ctx, q.Filter)
		if err != nil {
			return nil, dataAccess("count movements by aircraft type", err)
		}
		result.Data = analytics.RankCounts(counts, q.Limit)
		return result, nil
	}

	var (
		movs   []domain.Movement
		stands int
	)
	g, gctx := errgroup.WithContext(ctx)
	if q.Metric.NeedsMovements() {
		g.Go(func() error {
			var err error
			movs, err = s.repo.ListMovements(gctx, q.Filter)
			if err != nil {
				return dataAccess("list movements", err)
			}
			return nil
		})
	}
	if q.Metric.NeedsStands() {
		g.Go(func() error {
			var err error
			stands, err = s.repo.CountStands(gctx, q.Filter.AirportID)
			if err != nil {
				return dataAccess("count stands", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch q.Metric {
	case analytics.MetricMovementsDaily:
		result.Data = analytics.DailyMovements(movs, q.Filter)
	case analytics.MetricMovementsCount:
		result.Data = CountResult{Count: analytics.CountMovements(movs, q.Filter)}
	case analytics.MetricTopRoutes:
		result.Data = analytics.TopRoutes(movs, q.Filter, q.Limit)
	case analytics.MetricStandOccupancy:
		result.Data = OccupancyResult{
			Percent:     analytics.StandOccupancy(movs, q.Filter, stands),
			TotalStands: stands,
		}
	case analytics.MetricStandOccupancyDaily:
		result.Data = analytics.DailyStandOccupancy(movs, q.Filter, stands)
	}
	return result, nil
}
