package analytics

import (
	"sort"
	"strings"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
)

// RankCounts orders counts descending, ties by key ascending, and keeps the first n.
func RankCounts(counts map[string]int, n int) []domain.RankedCount {
	out := make([]domain.RankedCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, domain.RankedCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopRoutes ranks ORIGIN-DESTINATION pairs. Movements missing either end are skipped.
func TopRoutes(movs []domain.Movement, f Filter, n int) []domain.RankedCount {
	counts := make(map[string]int)
	for _, m := range movs {
		if !f.matches(m.AirportID, m.ScheduledTime) {
			continue
		}
		origin := strings.ToUpper(strings.TrimSpace(m.Origin))
		dest := strings.ToUpper(strings.TrimSpace(m.Destination))
		if origin == "" || dest == "" {
			continue
		}
		counts[origin+"-"+dest]++
	}
	return RankCounts(counts, n)
}
