package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// RoutingKeyMovementsImported is published by the import tooling after a movement batch lands.
const RoutingKeyMovementsImported = "movements.imported"

type movementsImportedEvent struct {
	AirportID string `json:"airport_id"`
}

// MovementsImportedHandler pairs rotations for the airport named in a
// movements.imported event. Malformed payloads are dropped; pairing failures
// are retried by re-queuing.
func MovementsImportedHandler(svc *RotationService, timeout time.Duration, logger *slog.Logger) func([]byte) bool {
	return func(body []byte) bool {
		var event movementsImportedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			logger.Warn("dropping malformed movements.imported event", "error", err)
			return true
		}
		airportID := strings.TrimSpace(event.AirportID)
		if airportID == "" {
			logger.Warn("dropping movements.imported event without airport_id")
			return true
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := svc.PairRotations(ctx, &airportID)
		if err != nil {
			logger.Error("rotation pairing after import failed", "airport_id", airportID, "error", err)
			return false
		}
		for _, a := range result.Airports {
			if a.Error != "" {
				logger.Error("rotation pairing after import failed", "airport_id", a.AirportID, "error", a.Error)
				return false
			}
		}
		return true
	}
}
