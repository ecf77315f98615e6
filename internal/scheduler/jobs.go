/**
 * @description
 * Scheduled job implementations for the scheduler process.
 */
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/pkg/billingclient"
)

const rotationJobTimeout = 15 * time.Minute

// BillingClient defines the billing API operations the jobs trigger.
type BillingClient interface {
	PairRotations(ctx context.Context, airportID string) (*billingclient.PairingSummary, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	billing BillingClient
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(billing BillingClient, logger *slog.Logger) *Jobs {
	return &Jobs{billing: billing, logger: logger}
}

// PairRotations triggers the rotation pairing batch over every airport.
func (j *Jobs) PairRotations() {
	j.logger.Info("starting rotation pairing job")
	ctx, cancel := context.WithTimeout(context.Background(), rotationJobTimeout)
	defer cancel()

	summary, err := j.billing.PairRotations(ctx, "")
	if err != nil {
		j.logger.Error("failed to run rotation pairing", "error", err)
		return
	}

	failed := 0
	for _, airport := range summary.Airports {
		if airport.Error != "" {
			failed++
			j.logger.Warn("rotation pairing failed for airport", "airport_id", airport.AirportID, "error", airport.Error)
		}
	}

	if summary.Interrupted {
		j.logger.Warn("rotation pairing stopped before every airport was visited", "remaining_airports", summary.Remaining)
	}

	j.logger.Info("rotation pairing job finished",
		"airports", len(summary.Airports),
		"failed_airports", failed,
		"rotations_created", summary.Total.RotationsCreated,
		"movements_updated", summary.Total.MovementsUpdated,
	)
}
