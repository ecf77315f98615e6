/**
 * @description
 * Rotation pairing planner. Groups unpaired movements by aircraft
 * registration and links each arrival with the departure that immediately
 * follows it. Canceled legs never pair and are left out of the walk.
 * Everything left over becomes a single-leg rotation.
 */
package rotation

import (
	"sort"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/google/uuid"
)

const DefaultMaxGap = 24 * time.Hour

// Options tunes the planner.
type Options struct {
	// MaxGap bounds ARR to DEP ground time. Zero means unbounded.
	MaxGap time.Duration
	NewID  func() string
}

// Plan proposes rotations for movements that have no rotation yet.
// Movements that already carry a rotation are ignored, so planning the
// output of a previous run yields nothing.
func Plan(airportID string, movs []domain.Movement, opts Options) []domain.Rotation {
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	groups := make(map[string][]domain.Movement)
	var keys []string
	var singles []domain.Movement
	for _, m := range movs {
		if m.RotationID != nil {
			continue
		}
		reg := m.NormalizedRegistration()
		if reg == "" {
			singles = append(singles, m)
			continue
		}
		if _, ok := groups[reg]; !ok {
			keys = append(keys, reg)
		}
		groups[reg] = append(groups[reg], m)
	}
	sort.Strings(keys)

	var out []domain.Rotation
	for _, reg := range keys {
		var legs, canceled []domain.Movement
		for _, m := range groups[reg] {
			if m.Status == domain.StatusCanceled {
				canceled = append(canceled, m)
				continue
			}
			legs = append(legs, m)
		}
		sortByTime(legs)
		sortByTime(canceled)

		for i := 0; i < len(legs); i++ {
			cur := legs[i]
			if i+1 < len(legs) && pairs(cur, legs[i+1], opts.MaxGap) {
				out = append(out, domain.Rotation{
					ID:          newID(),
					AirportID:   airportID,
					MovementIDs: []string{cur.ID, legs[i+1].ID},
				})
				i++
				continue
			}
			out = append(out, single(newID(), airportID, cur))
		}
		for _, m := range canceled {
			out = append(out, single(newID(), airportID, m))
		}
	}

	sortByTime(singles)
	for _, m := range singles {
		out = append(out, single(newID(), airportID, m))
	}
	return out
}

func pairs(arr, dep domain.Movement, maxGap time.Duration) bool {
	if arr.Direction != domain.DirectionArrival || dep.Direction != domain.DirectionDeparture {
		return false
	}
	gap := dep.ScheduledTime.Sub(arr.ScheduledTime)
	if gap < 0 {
		return false
	}
	return maxGap <= 0 || gap <= maxGap
}

func single(id, airportID string, m domain.Movement) domain.Rotation {
	return domain.Rotation{ID: id, AirportID: airportID, MovementIDs: []string{m.ID}}
}

func sortByTime(movs []domain.Movement) {
	sort.SliceStable(movs, func(i, j int) bool {
		if !movs[i].ScheduledTime.Equal(movs[j].ScheduledTime) {
			return movs[i].ScheduledTime.Before(movs[j].ScheduledTime)
		}
		return movs[i].ID < movs[j].ID
	})
}
