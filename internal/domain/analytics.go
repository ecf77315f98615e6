package domain

import "github.com/shopspring/decimal"

// DailyMovementCount is one UTC day of movement counts.
type DailyMovementCount struct {
	Date       string `json:"date" csv:"date"`
	Arrivals   int    `json:"arr" csv:"arr"`
	Departures int    `json:"dep" csv:"dep"`
	Total      int    `json:"total" csv:"total"`
}

// DailyRevenue is one UTC day of summed invoice totals.
type DailyRevenue struct {
	Date   string          `json:"date" csv:"date"`
	Amount decimal.Decimal `json:"amount" csv:"amount"`
	Count  int             `json:"count" csv:"count"`
}

// DailyOccupancy is the stand occupancy ratio for one UTC day.
type DailyOccupancy struct {
	Date           string `json:"date" csv:"date"`
	OccupiedStands int    `json:"occupied_stands" csv:"occupied_stands"`
	TotalStands    int    `json:"total_stands" csv:"total_stands"`
	Percent        int    `json:"percent" csv:"percent"`
}

// RankedCount is one entry of a top-N ranking.
type RankedCount struct {
	Key   string `json:"key" csv:"key"`
	Count int    `json:"count" csv:"count"`
}
