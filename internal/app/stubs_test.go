package app

import (
	"context"
	"sync"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/analytics"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/ratelimit"
)

type stubRepo struct {
	mu sync.Mutex

	movements     []domain.Movement
	rates         []domain.TariffRow
	aircraftTypes map[string]domain.AircraftType
	invoices      []domain.InvoiceRecord
	stands        int
	typeCounts    map[string]int
	airports      []string

	movementsErr error
	ratesErr     error
	standsErr    error
	unpairedErr  map[string]error
	createErr    map[string]error

	aircraftCalls [][]string
	created       []domain.Rotation
}

func (s *stubRepo) GetMovementsByIDs(_ context.Context, ids []string) ([]domain.Movement, error) {
	if s.movementsErr != nil {
		return nil, s.movementsErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Movement
	for _, m := range s.movements {
		if want[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubRepo) ListBillingRates(_ context.Context, _ string) ([]domain.TariffRow, error) {
	return s.rates, s.ratesErr
}

func (s *stubRepo) GetAircraftTypes(_ context.Context, codes []string) (map[string]domain.AircraftType, error) {
	s.mu.Lock()
	s.aircraftCalls = append(s.aircraftCalls, codes)
	s.mu.Unlock()
	return s.aircraftTypes, nil
}

func (s *stubRepo) ListMovements(_ context.Context, _ analytics.Filter) ([]domain.Movement, error) {
	return s.movements, s.movementsErr
}

func (s *stubRepo) ListInvoices(_ context.Context, _ analytics.Filter) ([]domain.InvoiceRecord, error) {
	return s.invoices, nil
}

func (s *stubRepo) CountStands(_ context.Context, _ string) (int, error) {
	return s.stands, s.standsErr
}

func (s *stubRepo) CountMovementsByAircraftType(_ context.Context, _ analytics.Filter) (map[string]int, error) {
	return s.typeCounts, nil
}

func (s *stubRepo) ListAirportIDs(_ context.Context) ([]string, error) {
	return s.airports, nil
}

func (s *stubRepo) ListUnpairedMovements(_ context.Context, airportID string) ([]domain.Movement, error) {
	if err := s.unpairedErr[airportID]; err != nil {
		return nil, err
	}
	var out []domain.Movement
	for _, m := range s.movements {
		if m.AirportID == airportID && m.RotationID == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubRepo) CreateRotation(_ context.Context, rot domain.Rotation) (int64, error) {
	if err := s.createErr[rot.AirportID]; err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, rot)
	for i := range s.movements {
		for _, id := range rot.MovementIDs {
			if s.movements[i].ID == id {
				rid := rot.ID
				s.movements[i].RotationID = &rid
			}
		}
	}
	return int64(len(rot.MovementIDs)), nil
}

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	calls    int
}

func (s *stubLimiter) Admit(_ context.Context, _, _ string) (ratelimit.Decision, error) {
	s.calls++
	return s.decision, s.err
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

type stubPublisher struct {
	events []publishedEvent
	err    error
}

func (s *stubPublisher) Publish(_ context.Context, exchange, routingKey string, body interface{}) error {
	s.events = append(s.events, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return s.err
}
