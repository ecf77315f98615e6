package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/billing"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/ratelimit"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func classPtr(c domain.TrafficClass) *domain.TrafficClass { return &c }

func int64Ptr(v int64) *int64 { return &v }

func rate(fee domain.FeeType, subtype, value string) domain.TariffRow {
	return domain.TariffRow{
		ID:       string(fee) + "-" + subtype,
		FeeType:  fee,
		Subtype:  subtype,
		Value:    decimal.RequireFromString(value),
		Currency: "XOF",
		Active:   true,
	}
}

func billingFixture() *stubRepo {
	return &stubRepo{
		movements: []domain.Movement{
			{
				ID:            "m1",
				AirportID:     "apt-1",
				Registration:  "TU-ABC",
				AircraftType:  "A320",
				Direction:     domain.DirectionArrival,
				ScheduledTime: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
				TrafficClass:  classPtr(domain.TrafficDomestic),
				MTOWKg:        int64Ptr(20000),
				Passengers:    domain.Passengers{Full: 50},
				Billable:      true,
			},
			{
				ID:            "m2",
				AirportID:     "apt-1",
				Registration:  "TU-XYZ",
				AircraftType:  "AT72",
				Direction:     domain.DirectionDeparture,
				ScheduledTime: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
				TrafficClass:  classPtr(domain.TrafficDomestic),
				Passengers:    domain.Passengers{Full: 10},
				Billable:      true,
			},
			{
				ID:           "other-airport",
				AirportID:    "apt-2",
				Direction:    domain.DirectionArrival,
				TrafficClass: classPtr(domain.TrafficDomestic),
				Billable:     true,
			},
		},
		rates: []domain.TariffRow{
			rate(domain.FeeLanding, "domestic", "500"),
			rate(domain.FeePassenger, "domestic", "100"),
		},
		aircraftTypes: map[string]domain.AircraftType{
			"AT72": {Code: "AT72", DefaultMTOWKg: int64Ptr(23000)},
		},
	}
}

func newBillingService(repo *stubRepo, limiter ratelimit.Admitter, pub EventPublisher) *BillingService {
	return NewBillingService(repo, limiter, pub, "aero.events", 3, testLogger())
}

func TestCalculate_PricesRequestInOrder(t *testing.T) {
	repo := billingFixture()
	pub := &stubPublisher{}
	svc := newBillingService(repo, &stubLimiter{decision: ratelimit.Decision{Allowed: true}}, pub)

	tax := decimal.NewFromInt(10)
	inv, err := svc.Calculate(context.Background(), "user_1", BillingRequest{
		MovementIDs: []string{"m2", "m1"},
		AirportID:   "apt-1",
		TaxPercent:  &tax,
	})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	if len(inv.LineItems) != 2 || inv.LineItems[0].MovementID != "m2" || inv.LineItems[1].MovementID != "m1" {
		t.Fatalf("unexpected line items order: %+v", inv.LineItems)
	}
	if !inv.LineItems[1].Total.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("expected arrival total 15000, got %s", inv.LineItems[1].Total)
	}
	if !inv.Subtotal.Equal(decimal.NewFromInt(16000)) {
		t.Fatalf("expected subtotal 16000, got %s", inv.Subtotal)
	}
	if !inv.Tax.Equal(decimal.NewFromInt(1600)) || !inv.Total.Equal(decimal.NewFromInt(17600)) {
		t.Fatalf("unexpected tax/total: %s/%s", inv.Tax, inv.Total)
	}
	if len(repo.aircraftCalls) != 1 || len(repo.aircraftCalls[0]) != 1 || repo.aircraftCalls[0][0] != "AT72" {
		t.Fatalf("expected aircraft type lookup for AT72 only, got %v", repo.aircraftCalls)
	}
	if len(pub.events) != 1 || pub.events[0].routingKey != "billing.calculated" {
		t.Fatalf("expected billing.calculated event, got %+v", pub.events)
	}
}

func TestCalculate_Validation(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	tests := []struct {
		name string
		req  BillingRequest
	}{
		{name: "missing airport", req: BillingRequest{MovementIDs: []string{"m1"}}},
		{name: "no movements", req: BillingRequest{AirportID: "apt-1"}},
		{name: "too many", req: BillingRequest{AirportID: "apt-1", MovementIDs: []string{"a", "b", "c", "d"}}},
		{name: "blank id", req: BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1", " "}}},
		{name: "duplicate id", req: BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1", "m1"}}},
		{name: "negative tax", req: BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}, TaxPercent: &neg}},
		{name: "foreign movement", req: BillingRequest{AirportID: "apt-1", MovementIDs: []string{"other-airport"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
			svc := newBillingService(billingFixture(), limiter, nil)
			_, err := svc.Calculate(context.Background(), "user_1", tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCalculate_RequiresIdentity(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
	svc := newBillingService(billingFixture(), limiter, nil)
	_, err := svc.Calculate(context.Background(), "", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if limiter.calls != 0 {
		t.Fatalf("limiter should not be consulted without identity")
	}

	_, err = svc.Calculate(context.Background(), " ", BillingRequest{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("missing identity must win over an invalid request, got %v", err)
	}
}

func TestCalculate_RateLimited(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: false, Count: 21, Limit: 20, RetryAfter: 1500 * time.Millisecond}}
	svc := newBillingService(billingFixture(), limiter, nil)

	_, err := svc.Calculate(context.Background(), "user_1", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) || rlErr.RetryAfterSeconds() != 2 {
		t.Fatalf("expected retry after 2s, got %v", err)
	}
}

func TestCalculate_LimiterFailureFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	svc := newBillingService(billingFixture(), limiter, nil)

	if _, err := svc.Calculate(context.Background(), "user_1", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}}); err != nil {
		t.Fatalf("expected request to be admitted, got %v", err)
	}
}

func TestCalculate_MissingMovement(t *testing.T) {
	svc := newBillingService(billingFixture(), nil, nil)
	_, err := svc.Calculate(context.Background(), "user_1", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1", "ghost"}})

	var nf *NotFoundError
	if !errors.As(err, &nf) || len(nf.IDs) != 1 || nf.IDs[0] != "ghost" {
		t.Fatalf("expected NotFoundError for ghost, got %v", err)
	}
	if !errors.Is(err, ErrMovementNotFound) {
		t.Fatalf("expected ErrMovementNotFound, got %v", err)
	}
}

func TestCalculate_DataAccessFailure(t *testing.T) {
	repo := billingFixture()
	repo.ratesErr = errors.New("connection refused")
	svc := newBillingService(repo, nil, nil)

	_, err := svc.Calculate(context.Background(), "user_1", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}})
	if !errors.Is(err, ErrDataAccess) {
		t.Fatalf("expected ErrDataAccess, got %v", err)
	}
}

func TestCalculate_PropagatesBillingErrors(t *testing.T) {
	repo := billingFixture()
	repo.movements[0].TrafficClass = nil
	svc := newBillingService(repo, nil, nil)

	_, err := svc.Calculate(context.Background(), "user_1", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}})
	if !errors.Is(err, billing.ErrClassificationMissing) {
		t.Fatalf("expected ErrClassificationMissing, got %v", err)
	}

	repo = billingFixture()
	repo.rates = nil
	svc = newBillingService(repo, nil, nil)
	_, err = svc.Calculate(context.Background(), "user_1", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}})
	if !errors.Is(err, billing.ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound, got %v", err)
	}
}

func TestCalculate_PublishFailureIsNotFatal(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := newBillingService(billingFixture(), nil, pub)

	if _, err := svc.Calculate(context.Background(), "user_1", BillingRequest{AirportID: "apt-1", MovementIDs: []string{"m1"}}); err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
}
