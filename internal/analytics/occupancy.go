package analytics

import (
	"math"
	"sort"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
)

// StandOccupancy is the share of stands held by planned or arrived movements,
// as a whole percentage in [0,100].
func StandOccupancy(movs []domain.Movement, f Filter, totalStands int) int {
	occupied := make(map[string]struct{})
	for _, m := range movs {
		if !f.matches(m.AirportID, m.ScheduledTime) {
			continue
		}
		if stand, ok := holdsStand(m); ok {
			occupied[stand] = struct{}{}
		}
	}
	return occupancyPercent(len(occupied), totalStands)
}

// DailyStandOccupancy computes the same ratio for each UTC day that has at
// least one movement in the filter.
func DailyStandOccupancy(movs []domain.Movement, f Filter, totalStands int) []domain.DailyOccupancy {
	byDay := make(map[string]map[string]struct{})
	for _, m := range movs {
		if !f.matches(m.AirportID, m.ScheduledTime) {
			continue
		}
		key := dayKey(m.ScheduledTime)
		stands, ok := byDay[key]
		if !ok {
			stands = make(map[string]struct{})
			byDay[key] = stands
		}
		if stand, ok := holdsStand(m); ok {
			stands[stand] = struct{}{}
		}
	}

	out := make([]domain.DailyOccupancy, 0, len(byDay))
	for day, stands := range byDay {
		out = append(out, domain.DailyOccupancy{
			Date:           day,
			OccupiedStands: len(stands),
			TotalStands:    totalStands,
			Percent:        occupancyPercent(len(stands), totalStands),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func holdsStand(m domain.Movement) (string, bool) {
	if m.StandID == nil || *m.StandID == "" || !m.Status.OccupiesStand() {
		return "", false
	}
	return *m.StandID, true
}

func occupancyPercent(occupied, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(occupied) / float64(total)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
