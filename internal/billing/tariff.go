/**
 * @description
 * Rate table lookup. Reduces the raw billing_rates rows that apply to one
 * airport into a resolved Tariff the calculator can price against.
 *
 * Resolution rules:
 * - Only active rows whose validity window contains the pricing instant count.
 * - A matching airport-specific row, class-specific or generic, wins over
 *   any global row.
 * - Two eligible rows for the same key in the same scope is a configuration
 *   error and is reported, never silently picked.
 */
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

type rateKey struct {
	fee     domain.FeeType
	subtype string
}

// Tariff is the resolved set of rates for one airport at one instant.
// Airport rates and global defaults are kept apart so lookups can honour
// scope before class.
type Tariff struct {
	AirportID string
	Currency  string
	airport   map[rateKey]decimal.Decimal
	global    map[rateKey]decimal.Decimal
}

// NewTariff builds a tariff directly from airport rates keyed by fee type and
// subtype. It is intended for callers that already hold resolved values.
func NewTariff(airportID, currency string, rates map[domain.FeeType]map[string]decimal.Decimal) Tariff {
	t := Tariff{AirportID: airportID, Currency: currency, airport: make(map[rateKey]decimal.Decimal)}
	for fee, bySubtype := range rates {
		for subtype, value := range bySubtype {
			t.airport[rateKey{fee: fee, subtype: normalizeSubtype(subtype)}] = value
		}
	}
	return t
}

// Rate returns the rate for the fee type and traffic class. Lookup order is
// airport class row, airport generic row, global class row, global generic
// row. ok is false when none is configured.
func (t Tariff) Rate(fee domain.FeeType, class domain.TrafficClass) (decimal.Decimal, bool) {
	for _, scope := range []map[rateKey]decimal.Decimal{t.airport, t.global} {
		if v, ok := scope[rateKey{fee: fee, subtype: string(class)}]; ok {
			return v, true
		}
		if v, ok := scope[rateKey{fee: fee}]; ok {
			return v, true
		}
	}
	return decimal.Decimal{}, false
}

// ResolveTariff selects the rows that apply to airportID at the given instant.
func ResolveTariff(rows []domain.TariffRow, airportID string, at time.Time) (Tariff, error) {
	specific := make(map[rateKey]domain.TariffRow)
	global := make(map[rateKey]domain.TariffRow)

	for _, row := range rows {
		if !row.EffectiveAt(at) {
			continue
		}
		scope := global
		if row.AirportID != nil {
			if *row.AirportID != airportID {
				continue
			}
			scope = specific
		}
		key := rateKey{fee: row.FeeType, subtype: normalizeSubtype(row.Subtype)}
		if prev, dup := scope[key]; dup {
			return Tariff{}, fmt.Errorf("%w: rows %s and %s both price %s/%s", ErrAmbiguousTariff, prev.ID, row.ID, key.fee, key.subtype)
		}
		scope[key] = row
	}

	if len(specific)+len(global) == 0 {
		return Tariff{}, fmt.Errorf("%w: airport %s", ErrRateNotFound, airportID)
	}

	t := Tariff{
		AirportID: airportID,
		airport:   make(map[rateKey]decimal.Decimal, len(specific)),
		global:    make(map[rateKey]decimal.Decimal, len(global)),
	}
	fill := func(dst map[rateKey]decimal.Decimal, rows map[rateKey]domain.TariffRow) error {
		for k, row := range rows {
			currency := strings.ToUpper(strings.TrimSpace(row.Currency))
			if t.Currency == "" {
				t.Currency = currency
			} else if currency != t.Currency {
				return fmt.Errorf("%w: mixed currencies %s and %s", ErrAmbiguousTariff, t.Currency, currency)
			}
			dst[k] = row.Value
		}
		return nil
	}
	if err := fill(t.airport, specific); err != nil {
		return Tariff{}, err
	}
	if err := fill(t.global, global); err != nil {
		return Tariff{}, err
	}
	return t, nil
}

func normalizeSubtype(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
