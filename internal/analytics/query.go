/**
 * @description
 * Query description for the aggregation engine: which metric, over which
 * inclusive time range, optionally restricted to one airport.
 */
package analytics

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidQuery = errors.New("invalid analytics query")

// Metric names one aggregate the engine can compute.
type Metric string

const (
	MetricMovementsDaily      Metric = "movements_daily"
	MetricMovementsCount      Metric = "movements_count"
	MetricRevenueDaily        Metric = "revenue_daily"
	MetricTopAircraftTypes    Metric = "top_aircraft_types"
	MetricTopRoutes           Metric = "top_routes"
	MetricStandOccupancy      Metric = "stand_occupancy"
	MetricStandOccupancyDaily Metric = "stand_occupancy_daily"
)

const DefaultTopN = 10

var knownMetrics = map[Metric]struct{}{
	MetricMovementsDaily:      {},
	MetricMovementsCount:      {},
	MetricRevenueDaily:        {},
	MetricTopAircraftTypes:    {},
	MetricTopRoutes:           {},
	MetricStandOccupancy:      {},
	MetricStandOccupancyDaily: {},
}

// Filter restricts the records an aggregate considers. Both bounds are inclusive.
type Filter struct {
	Start     time.Time
	End       time.Time
	AirportID string
}

func (f Filter) matches(airportID string, at time.Time) bool {
	if f.AirportID != "" && f.AirportID != airportID {
		return false
	}
	return !at.Before(f.Start) && !at.After(f.End)
}

// Query is one analytics request.
type Query struct {
	Metric   Metric
	Filter   Filter
	Limit    int
	PaidOnly bool
}

// Validate checks the query and fills the default top-N limit.
func (q *Query) Validate() error {
	if _, ok := knownMetrics[q.Metric]; !ok {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidQuery, q.Metric)
	}
	if q.Filter.Start.IsZero() || q.Filter.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidQuery)
	}
	if q.Filter.Start.After(q.Filter.End) {
		return fmt.Errorf("%w: start is after end", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	if q.Limit == 0 {
		q.Limit = DefaultTopN
	}
	return nil
}

// NeedsMovements reports whether the metric reads movement records.
func (m Metric) NeedsMovements() bool {
	switch m {
	case MetricMovementsDaily, MetricMovementsCount, MetricTopRoutes,
		MetricStandOccupancy, MetricStandOccupancyDaily:
		return true
	}
	return false
}

// NeedsStands reports whether the metric needs the airport stand count.
func (m Metric) NeedsStands() bool {
	return m == MetricStandOccupancy || m == MetricStandOccupancyDaily
}
