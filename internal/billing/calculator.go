/**
 * @description
 * Fee calculator. Prices classified movements against a resolved tariff.
 *
 * The calculator performs no lookups and never mutates its inputs; the same
 * facts and tariff always produce the same invoice.
 */
package billing

import (
	"fmt"
	"math"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate prices every movement. One failing movement fails the batch.
func Calculate(facts []Facts, tariff Tariff) (domain.Invoice, error) {
	inv := domain.Invoice{
		AirportID: tariff.AirportID,
		Currency:  tariff.Currency,
		LineItems: make([]domain.LineItem, 0, len(facts)),
		Subtotal:  decimal.Zero,
		Tax:       decimal.Zero,
	}

	for _, f := range facts {
		item, err := priceMovement(f, tariff)
		if err != nil {
			return domain.Invoice{}, err
		}
		inv.LineItems = append(inv.LineItems, item)
		inv.Subtotal = inv.Subtotal.Add(item.Total)
	}
	inv.Total = inv.Subtotal
	return inv, nil
}

// ApplyTax adds a pass-through percentage tax on the subtotal.
func ApplyTax(inv domain.Invoice, percent decimal.Decimal) (domain.Invoice, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return domain.Invoice{}, fmt.Errorf("%w: tax percent %s out of range", ErrInvalidInput, percent)
	}
	inv.Tax = inv.Subtotal.Mul(percent).Div(hundred).Round(2)
	inv.Total = inv.Subtotal.Add(inv.Tax)
	return inv, nil
}

func priceMovement(f Facts, tariff Tariff) (domain.LineItem, error) {
	item := domain.LineItem{
		MovementID:   f.MovementID,
		Registration: f.Registration,
		MovementType: f.Direction,
		LandingFee:   decimal.Zero,
		ParkingFee:   decimal.Zero,
		PassengerFee: decimal.Zero,
		LightingFee:  decimal.Zero,
		SecurityFee:  decimal.Zero,
		FreightFee:   decimal.Zero,
		Total:        decimal.Zero,
	}
	if !f.Billable {
		return item, nil
	}

	paxRate, ok := tariff.Rate(domain.FeePassenger, f.Class)
	if !ok {
		return domain.LineItem{}, movementErr(f.MovementID, fmt.Errorf("%w: passenger/%s", ErrRateNotFound, f.Class))
	}
	pax := decimal.NewFromInt(int64(f.ChargeablePax))
	item.PassengerFee = pax.Mul(paxRate).Round(2)

	switch f.Direction {
	case domain.DirectionArrival:
		landingRate, ok := tariff.Rate(domain.FeeLanding, f.Class)
		if !ok {
			return domain.LineItem{}, movementErr(f.MovementID, fmt.Errorf("%w: landing/%s", ErrRateNotFound, f.Class))
		}
		item.LandingFee = f.Tonnage.Mul(landingRate).Round(2)
	case domain.DirectionDeparture:
		if rate, ok := tariff.Rate(domain.FeeSecurity, f.Class); ok {
			item.SecurityFee = pax.Mul(rate).Round(2)
		}
		if rate, ok := tariff.Rate(domain.FeeParking, f.Class); ok && f.ParkingHours > 0 {
			hours := decimal.NewFromFloat(math.Ceil(f.ParkingHours))
			item.ParkingFee = f.Tonnage.Mul(hours).Mul(rate).Round(2)
		}
	default:
		return domain.LineItem{}, movementErr(f.MovementID, fmt.Errorf("%w: direction %q", ErrInvalidInput, f.Direction))
	}

	if rate, ok := tariff.Rate(domain.FeeLighting, f.Class); ok {
		item.LightingFee = rate.Round(2)
	}
	if rate, ok := tariff.Rate(domain.FeeFreight, f.Class); ok {
		item.FreightFee = f.FreightTonnes.Mul(rate).Round(2)
	}

	item.Total = item.LandingFee.
		Add(item.ParkingFee).
		Add(item.PassengerFee).
		Add(item.LightingFee).
		Add(item.SecurityFee).
		Add(item.FreightFee)
	return item, nil
}
