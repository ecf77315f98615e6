/**
 * @description
 * Rotation pairing batch. Walks airports one at a time, plans rotations for
 * their unpaired movements and persists each rotation in its own transaction.
 * A failing airport is reported in the result and the batch moves on.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/rotation"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/store"
	"github.com/google/uuid"
)

// AirportPairingResult summarizes one airport of the batch.
type AirportPairingResult struct {
	AirportID        string `json:"airport_id"`
	MovementsUpdated int64  `json:"movements_updated"`
	RotationsCreated int    `json:"rotations_created"`
	Error            string `json:"error,omitempty"`
}

// PairingTotals sums the per-airport results.
type PairingTotals struct {
	MovementsUpdated int64 `json:"movements_updated"`
	RotationsCreated int   `json:"rotations_created"`
}

// PairingResult is the outcome of one batch run. Interrupted is set when the
// context ended before every airport was visited; Remaining counts the
// airports left for the next run.
type PairingResult struct {
	Airports    []AirportPairingResult `json:"airports"`
	Total       PairingTotals          `json:"total"`
	Interrupted bool                   `json:"interrupted"`
	Remaining   int                    `json:"remaining"`
}

// RotationService runs the pairing batch.
type RotationService struct {
	repo      RotationRepository
	publisher EventPublisher
	exchange  string
	maxGap    time.Duration
	logger    *slog.Logger
}

func NewRotationService(repo RotationRepository, publisher EventPublisher, exchange string, maxGap time.Duration, logger *slog.Logger) *RotationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RotationService{repo: repo, publisher: publisher, exchange: exchange, maxGap: maxGap, logger: logger}
}

// PairRotations pairs one airport when airportID is set, otherwise every airport.
func (s *RotationService) PairRotations(ctx context.Context, airportID *string) (*PairingResult, error) {
	var airports []string
	if airportID != nil {
		id := strings.TrimSpace(*airportID)
		if id == "" {
			return nil, fmt.Errorf("%w: airport_id must not be blank", ErrValidation)
		}
		airports = []string{id}
	} else {
		ids, err := s.repo.ListAirportIDs(ctx)
		if err != nil {
			return nil, dataAccess("list airports", err)
		}
		airports = ids
	}

	result := &PairingResult{Airports: make([]AirportPairingResult, 0, len(airports))}
	for _, id := range airports {
		if err := ctx.Err(); err != nil {
			result.Interrupted = true
			result.Remaining = len(airports) - len(result.Airports)
			s.logger.Warn("rotation batch interrupted", "processed", len(result.Airports), "remaining", result.Remaining, "error", err)
			break
		}

		r := s.pairAirport(ctx, id)
		result.Airports = append(result.Airports, r)
		result.Total.MovementsUpdated += r.MovementsUpdated
		result.Total.RotationsCreated += r.RotationsCreated
	}

	// The batch context may already be done; the event still goes out.
	s.publishBatchCompleted(context.WithoutCancel(ctx), result)
	return result, nil
}

func (s *RotationService) pairAirport(ctx context.Context, airportID string) AirportPairingResult {
	r := AirportPairingResult{AirportID: airportID}

	movs, err := s.repo.ListUnpairedMovements(ctx, airportID)
	if err != nil {
		s.logger.Error("failed to list unpaired movements", "airport_id", airportID, "error", err)
		r.Error = dataAccess("list unpaired movements", err).Error()
		return r
	}

	planned := rotation.Plan(airportID, movs, rotation.Options{MaxGap: s.maxGap})
	for _, rot := range planned {
		updated, err := s.repo.CreateRotation(ctx, rot)
		if err != nil {
			if errors.Is(err, store.ErrRotationConflict) {
				s.logger.Info("movements already paired, skipping rotation", "airport_id", airportID, "movement_ids", rot.MovementIDs)
				continue
			}
			s.logger.Error("failed to persist rotation", "airport_id", airportID, "error", err)
			r.Error = dataAccess("create rotation", err).Error()
			return r
		}
		r.MovementsUpdated += updated
		r.RotationsCreated++
	}

	s.logger.Info("airport rotations paired", "airport_id", airportID, "rotations", r.RotationsCreated, "movements", r.MovementsUpdated)
	return r
}

type rotationBatchEvent struct {
	EventID          string    `json:"event_id"`
	Airports         int       `json:"airports"`
	Failed           int       `json:"failed"`
	MovementsUpdated int64     `json:"movements_updated"`
	RotationsCreated int       `json:"rotations_created"`
	Interrupted      bool      `json:"interrupted"`
	Timestamp        time.Time `json:"timestamp"`
}

func (s *RotationService) publishBatchCompleted(ctx context.Context, result *PairingResult) {
	if s.publisher == nil {
		return
	}
	failed := 0
	for _, a := range result.Airports {
		if a.Error != "" {
			failed++
		}
	}
	payload := rotationBatchEvent{
		EventID:          uuid.NewString(),
		Airports:         len(result.Airports),
		Failed:           failed,
		MovementsUpdated: result.Total.MovementsUpdated,
		RotationsCreated: result.Total.RotationsCreated,
		Interrupted:      result.Interrupted,
		Timestamp:        time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.exchange, "rotation.batch_completed", payload); err != nil {
		s.logger.Warn("failed to publish rotation batch event", "error", err)
	}
}
