package app

import (
	"context"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/analytics"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
)

// BillingRepository defines the reads a billing request needs.
type BillingRepository interface {
	GetMovementsByIDs(ctx context.Context, ids []string) ([]domain.Movement, error)
	ListBillingRates(ctx context.Context, airportID string) ([]domain.TariffRow, error)
	GetAircraftTypes(ctx context.Context, codes []string) (map[string]domain.AircraftType, error)
}

// AnalyticsRepository defines the reads the aggregation queries need.
type AnalyticsRepository interface {
	ListMovements(ctx context.Context, f analytics.Filter) ([]domain.Movement, error)
	ListInvoices(ctx context.Context, f analytics.Filter) ([]domain.InvoiceRecord, error)
	CountStands(ctx context.Context, airportID string) (int, error)
	CountMovementsByAircraftType(ctx context.Context, f analytics.Filter) (map[string]int, error)
}

// RotationRepository defines the operations of the pairing batch.
type RotationRepository interface {
	ListAirportIDs(ctx context.Context) ([]string, error)
	ListUnpairedMovements(ctx context.Context, airportID string) ([]domain.Movement, error)
	CreateRotation(ctx context.Context, rot domain.Rotation) (int64, error)
}

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}
