package billing

import (
	"fmt"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// Facts are the validated, derived billing inputs for one movement.
type Facts struct {
	MovementID    string
	Registration  string
	Direction     domain.Direction
	Class         domain.TrafficClass
	Billable      bool
	MTOWKg        int64
	Tonnage       decimal.Decimal
	ChargeablePax int
	FreightTonnes decimal.Decimal
	// ParkingHours is the ground time before a departure. Zero means no parking charge.
	ParkingHours float64
}

// Classify validates a movement once and derives the values fees are priced on.
// Non-billable movements only need a valid direction; they price to zero.
func Classify(m domain.Movement, aircraft *domain.AircraftType) (Facts, error) {
	if !m.Direction.Valid() {
		return Facts{}, movementErr(m.ID, fmt.Errorf("%w: direction %q", ErrInvalidInput, m.Direction))
	}

	facts := Facts{
		MovementID:   m.ID,
		Registration: m.Registration,
		Direction:    m.Direction,
		Billable:     m.Billable,
	}
	if !m.Billable {
		return facts, nil
	}

	if m.TrafficClass == nil || !m.TrafficClass.Valid() {
		return Facts{}, movementErr(m.ID, ErrClassificationMissing)
	}
	facts.Class = *m.TrafficClass

	mtow, err := effectiveMTOW(m, aircraft)
	if err != nil {
		return Facts{}, movementErr(m.ID, err)
	}
	facts.MTOWKg = mtow
	facts.Tonnage = decimal.NewFromInt(mtow).Div(thousand)

	p := m.Passengers
	if p.Full < 0 || p.Half < 0 || p.Transit < 0 || p.Connecting < 0 {
		return Facts{}, movementErr(m.ID, fmt.Errorf("%w: negative passenger count", ErrInvalidInput))
	}
	if m.FreightKg < 0 || m.MailKg < 0 {
		return Facts{}, movementErr(m.ID, fmt.Errorf("%w: negative freight or mail weight", ErrInvalidInput))
	}

	net := p.Paying()
	if m.Direction == domain.DirectionArrival {
		net -= p.Connecting
	} else {
		net -= p.Transit
	}
	if net < 0 {
		net = 0
	}
	facts.ChargeablePax = net
	facts.FreightTonnes = decimal.NewFromFloat(m.FreightKg + m.MailKg).Div(thousand)

	return facts, nil
}

func effectiveMTOW(m domain.Movement, aircraft *domain.AircraftType) (int64, error) {
	if m.MTOWKg != nil {
		if *m.MTOWKg <= 0 {
			return 0, fmt.Errorf("%w: mtow %d kg", ErrInvalidInput, *m.MTOWKg)
		}
		return *m.MTOWKg, nil
	}
	if aircraft != nil && aircraft.DefaultMTOWKg != nil && *aircraft.DefaultMTOWKg > 0 {
		return *aircraft.DefaultMTOWKg, nil
	}
	return 0, fmt.Errorf("%w: mtow unknown for aircraft type %q", ErrInvalidInput, m.AircraftType)
}

// ParkingHours derives ground time for each departure whose rotation partner
// arrival is part of the same batch. The result is keyed by departure ID.
func ParkingHours(movs []domain.Movement) map[string]float64 {
	arrivals := make(map[string]domain.Movement)
	for _, m := range movs {
		if m.RotationID != nil && m.Direction == domain.DirectionArrival {
			arrivals[*m.RotationID] = m
		}
	}

	hours := make(map[string]float64)
	for _, m := range movs {
		if m.RotationID == nil || m.Direction != domain.DirectionDeparture {
			continue
		}
		arr, ok := arrivals[*m.RotationID]
		if !ok {
			continue
		}
		if d := m.ScheduledTime.Sub(arr.ScheduledTime); d > 0 {
			hours[m.ID] = d.Hours()
		}
	}
	return hours
}
