/**
 * @description
 * Billing request flow: validate, admit, fetch, classify, price.
 *
 * The computed invoice is returned to the caller and announced on the event
 * bus. It is never stored here.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/billing"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/ratelimit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	ActionBillingCalculate = "billing.calculate"
	DefaultMaxMovements    = 500
)

var hundred = decimal.NewFromInt(100)

// BillingRequest is the input of one invoice computation.
type BillingRequest struct {
	MovementIDs []string         `json:"movement_ids"`
	AirportID   string           `json:"airport_id"`
	TaxPercent  *decimal.Decimal `json:"tax_percent,omitempty"`
}

// BillingService computes invoices for batches of movements.
type BillingService struct {
	repo         BillingRepository
	limiter      ratelimit.Admitter
	publisher    EventPublisher
	exchange     string
	maxMovements int
	logger       *slog.Logger
	now          func() time.Time
}

// NewBillingService creates the billing flow. maxMovements <= 0 uses the default of 500.
func NewBillingService(repo BillingRepository, limiter ratelimit.Admitter, publisher EventPublisher, exchange string, maxMovements int, logger *slog.Logger) *BillingService {
	if maxMovements <= 0 {
		maxMovements = DefaultMaxMovements
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingService{
		repo:         repo,
		limiter:      limiter,
		publisher:    publisher,
		exchange:     exchange,
		maxMovements: maxMovements,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *BillingService) validate(req BillingRequest) error {
	if strings.TrimSpace(req.AirportID) == "" {
		return fmt.Errorf("%w: airport_id is required", ErrValidation)
	}
	if len(req.MovementIDs) == 0 {
		return fmt.Errorf("%w: movement_ids must not be empty", ErrValidation)
	}
	if len(req.MovementIDs) > s.maxMovements {
		return fmt.Errorf("%w: at most %d movements per request", ErrValidation, s.maxMovements)
	}
	seen := make(map[string]struct{}, len(req.MovementIDs))
	for _, id := range req.MovementIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: movement_ids must not contain blank values", ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate movement id %s", ErrValidation, id)
		}
		seen[id] = struct{}{}
	}
	if req.TaxPercent != nil && (req.TaxPercent.IsNegative() || req.TaxPercent.GreaterThan(hundred)) {
		return fmt.Errorf("%w: tax_percent must be between 0 and 100", ErrValidation)
	}
	return nil
}

func (s *BillingService) admit(ctx context.Context, identity string) error {
	if s.limiter == nil {
		return nil
	}
	decision, err := s.limiter.Admit(ctx, identity, ActionBillingCalculate)
	if err != nil {
		s.logger.Warn("rate limiter unavailable, admitting request", "identity", identity, "error", err)
		return nil
	}
	if !decision.Allowed {
		return &RateLimitError{RetryAfter: decision.RetryAfter}
	}
	return nil
}

// Calculate prices the requested movements for the calling identity.
func (s *BillingService) Calculate(ctx context.Context, identity string, req BillingRequest) (*domain.Invoice, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrUnauthorized
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.admit(ctx, identity); err != nil {
		return nil, err
	}

	var (
		movs []domain.Movement
		rows []domain.TariffRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movs, err = s.repo.GetMovementsByIDs(gctx, req.MovementIDs)
		if err != nil {
			return dataAccess("get movements", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = s.repo.ListBillingRates(gctx, req.AirportID)
		if err != nil {
			return dataAccess("list billing rates", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ordered, err := orderMovements(req, movs)
	if err != nil {
		return nil, err
	}

	aircraft, err := s.aircraftTypes(ctx, ordered)
	if err != nil {
		return nil, err
	}

	tariff, err := billing.ResolveTariff(rows, req.AirportID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	parking := billing.ParkingHours(ordered)
	facts := make([]billing.Facts, 0, len(ordered))
	for _, m := range ordered {
		var at *domain.AircraftType
		if t, ok := aircraft[m.AircraftType]; ok {
			at = &t
		}
		f, err := billing.Classify(m, at)
		if err != nil {
			return nil, err
		}
		f.ParkingHours = parking[m.ID]
		facts = append(facts, f)
	}

	invoice, err := billing.Calculate(facts, tariff)
	if err != nil {
		return nil, err
	}
	invoice.AirportID = req.AirportID
	if req.TaxPercent != nil {
		if invoice, err = billing.ApplyTax(invoice, *req.TaxPercent); err != nil {
			return nil, err
		}
	}

	s.publishCalculated(ctx, identity, invoice)
	return &invoice, nil
}

// orderMovements returns movements in request order and reports unknown ids
// or movements that belong to another airport.
func orderMovements(req BillingRequest, movs []domain.Movement) ([]domain.Movement, error) {
	byID := make(map[string]domain.Movement, len(movs))
	for _, m := range movs {
		byID[m.ID] = m
	}

	ordered := make([]domain.Movement, 0, len(req.MovementIDs))
	var missing []string
	for _, id := range req.MovementIDs {
		m, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if m.AirportID != req.AirportID {
			return nil, fmt.Errorf("%w: movement %s belongs to airport %s", ErrValidation, id, m.AirportID)
		}
		ordered = append(ordered, m)
	}
	if len(missing) > 0 {
		return nil, &NotFoundError{IDs: missing}
	}
	return ordered, nil
}

func (s *BillingService) aircraftTypes(ctx context.Context, movs []domain.Movement) (map[string]domain.AircraftType, error) {
	seen := make(map[string]struct{})
	var codes []string
	for _, m := range movs {
		if m.MTOWKg != nil || m.AircraftType == "" {
			continue
		}
		if _, ok := seen[m.AircraftType]; ok {
			continue
		}
		seen[m.AircraftType] = struct{}{}
		codes = append(codes, m.AircraftType)
	}
	if len(codes) == 0 {
		return nil, nil
	}
	sort.Strings(codes)

	types, err := s.repo.GetAircraftTypes(ctx, codes)
	if err != nil {
		return nil, dataAccess("get aircraft types", err)
	}
	return types, nil
}

type billingCalculatedEvent struct {
	EventID       string          `json:"event_id"`
	Identity      string          `json:"identity"`
	AirportID     string          `json:"airport_id"`
	MovementCount int             `json:"movement_count"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (s *BillingService) publishCalculated(ctx context.Context, identity string, invoice domain.Invoice) {
	if s.publisher == nil {
		return
	}
	payload := billingCalculatedEvent{
		EventID:       uuid.NewString(),
		Identity:      identity,
		AirportID:     invoice.AirportID,
		MovementCount: len(invoice.LineItems),
		Total:         invoice.Total,
		Currency:      invoice.Currency,
		Timestamp:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.exchange, "billing.calculated", payload); err != nil {
		s.logger.Warn("failed to publish billing event", "error", err)
	}
}
