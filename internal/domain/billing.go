/**
 * @description
 * Domain models for tariff rows, computed invoices and persisted invoice records.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeType enumerates the tariff categories an airport can configure.
type FeeType string

const (
	FeeLanding   FeeType = "landing"
	FeeParking   FeeType = "parking"
	FeeLighting  FeeType = "lighting"
	FeePassenger FeeType = "passenger"
	FeeSecurity  FeeType = "security"
	FeeFreight   FeeType = "freight"
	FeeFuel      FeeType = "fuel"
	FeeOvertime  FeeType = "overtime"
)

// TariffRow is one billing_rates row. A nil AirportID marks a global default.
type TariffRow struct {
	ID         string          `json:"id"`
	AirportID  *string         `json:"airport_id,omitempty"`
	FeeType    FeeType         `json:"fee_type"`
	Subtype    string          `json:"subtype"`
	Value      decimal.Decimal `json:"value"`
	Currency   string          `json:"currency"`
	Unit       string          `json:"unit"`
	Active     bool            `json:"active"`
	ValidFrom  *time.Time      `json:"valid_from,omitempty"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
}

// EffectiveAt reports whether the row is active and its validity window contains at.
func (r TariffRow) EffectiveAt(at time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && !at.Before(*r.ValidUntil) {
		return false
	}
	return true
}

// LineItem is the computed charge breakdown for one movement.
type LineItem struct {
	MovementID   string          `json:"movement_id"`
	Registration string          `json:"registration"`
	MovementType Direction       `json:"movement_type"`
	LandingFee   decimal.Decimal `json:"landing_fee"`
	ParkingFee   decimal.Decimal `json:"parking_fee"`
	PassengerFee decimal.Decimal `json:"passenger_fee"`
	LightingFee  decimal.Decimal `json:"lighting_fee"`
	SecurityFee  decimal.Decimal `json:"security_fee"`
	FreightFee   decimal.Decimal `json:"freight_fee"`
	Total        decimal.Decimal `json:"total"`
}

// Invoice is the ephemeral billing result. It is never persisted by this service.
type Invoice struct {
	AirportID string          `json:"airport_id"`
	Currency  string          `json:"currency"`
	LineItems []LineItem      `json:"line_items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// InvoiceStatusPaid marks a settled invoice record.
const InvoiceStatusPaid = "paid"

// InvoiceRecord is a persisted invoice row as read by revenue analytics.
type InvoiceRecord struct {
	ID        string          `json:"id"`
	AirportID string          `json:"airport_id"`
	CreatedAt time.Time       `json:"created_at"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
}
