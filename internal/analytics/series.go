package analytics

import (
	"sort"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func dayKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// DailyMovements counts arrivals and departures per UTC day. Only days with at
// least one movement appear, in ascending order.
func DailyMovements(movs []domain.Movement, f Filter) []domain.DailyMovementCount {
	byDay := make(map[string]*domain.DailyMovementCount)
	for _, m := range movs {
		if !f.matches(m.AirportID, m.ScheduledTime) {
			continue
		}
		key := dayKey(m.ScheduledTime)
		entry, ok := byDay[key]
		if !ok {
			entry = &domain.DailyMovementCount{Date: key}
			byDay[key] = entry
		}
		switch m.Direction {
		case domain.DirectionArrival:
			entry.Arrivals++
		case domain.DirectionDeparture:
			entry.Departures++
		default:
			continue
		}
		entry.Total++
	}

	out := make([]domain.DailyMovementCount, 0, len(byDay))
	for _, entry := range byDay {
		if entry.Total > 0 {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// CountMovements returns how many ARR/DEP movements match the filter.
func CountMovements(movs []domain.Movement, f Filter) int {
	n := 0
	for _, m := range movs {
		if f.matches(m.AirportID, m.ScheduledTime) && m.Direction.Valid() {
			n++
		}
	}
	return n
}

// DailyRevenue sums invoice totals per UTC day of creation.
func DailyRevenue(invoices []domain.InvoiceRecord, f Filter, paidOnly bool) []domain.DailyRevenue {
	byDay := make(map[string]*domain.DailyRevenue)
	for _, inv := range invoices {
		if !f.matches(inv.AirportID, inv.CreatedAt) {
			continue
		}
		if paidOnly && inv.Status != domain.InvoiceStatusPaid {
			continue
		}
		key := dayKey(inv.CreatedAt)
		entry, ok := byDay[key]
		if !ok {
			entry = &domain.DailyRevenue{Date: key, Amount: decimal.Zero}
			byDay[key] = entry
		}
		entry.Amount = entry.Amount.Add(inv.Total)
		entry.Count++
	}

	out := make([]domain.DailyRevenue, 0, len(byDay))
	for _, entry := range byDay {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
