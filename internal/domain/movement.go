/**
 * @description
 * Domain models for aircraft movements, aircraft types and rotations.
 */
package domain

import (
	"strings"
	"time"
)

// Direction is the movement leg: arrival or departure.
type Direction string

const (
	DirectionArrival   Direction = "ARR"
	DirectionDeparture Direction = "DEP"
)

// Valid reports whether d is exactly ARR or DEP.
func (d Direction) Valid() bool {
	return d == DirectionArrival || d == DirectionDeparture
}

// TrafficClass drives which tariff subtype applies.
type TrafficClass string

const (
	TrafficDomestic      TrafficClass = "domestic"
	TrafficInternational TrafficClass = "international"
)

// Valid reports whether c is a known traffic classification.
func (c TrafficClass) Valid() bool {
	return c == TrafficDomestic || c == TrafficInternational
}

// MovementStatus is the lifecycle state of a movement.
type MovementStatus string

const (
	StatusPlanned  MovementStatus = "planned"
	StatusArrived  MovementStatus = "arrived"
	StatusDeparted MovementStatus = "departed"
	StatusCanceled MovementStatus = "canceled"
)

// OccupiesStand reports whether a movement in this state holds its stand.
func (s MovementStatus) OccupiesStand() bool {
	return s == StatusPlanned || s == StatusArrived
}

// Passengers splits a movement's passenger count by category.
type Passengers struct {
	Full       int `json:"full"`
	Half       int `json:"half"`
	Transit    int `json:"transit"`
	Connecting int `json:"connecting"`
}

// Paying returns the passengers that count toward per-head fees before
// transit/connecting deductions.
func (p Passengers) Paying() int {
	return p.Full + p.Half
}

// Movement represents one scheduled aircraft event at one airport.
type Movement struct {
	ID            string         `json:"id"`
	AirportID     string         `json:"airport_id"`
	FlightNumber  string         `json:"flight_number"`
	Registration  string         `json:"registration"`
	AircraftType  string         `json:"aircraft_type"`
	Direction     Direction      `json:"direction"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	Status        MovementStatus `json:"status"`
	StandID       *string        `json:"stand_id,omitempty"`
	RotationID    *string        `json:"rotation_id,omitempty"`
	TrafficClass  *TrafficClass  `json:"traffic_class,omitempty"`
	Origin        string         `json:"origin,omitempty"`
	Destination   string         `json:"destination,omitempty"`
	Passengers    Passengers     `json:"passengers"`
	FreightKg     float64        `json:"freight_kg"`
	MailKg        float64        `json:"mail_kg"`
	MTOWKg        *int64         `json:"mtow_kg,omitempty"`
	Billable      bool           `json:"billable"`
}

// NormalizedRegistration is the registration used for grouping: trimmed and upper-cased.
func (m Movement) NormalizedRegistration() string {
	return strings.ToUpper(strings.TrimSpace(m.Registration))
}

// AircraftType carries per-type defaults used when a movement omits them.
type AircraftType struct {
	Code          string `json:"code"`
	DefaultMTOWKg *int64 `json:"default_mtow_kg,omitempty"`
}

// Rotation links the legs of one aircraft ground visit.
type Rotation struct {
	ID          string   `json:"id"`
	AirportID   string   `json:"airport_id"`
	MovementIDs []string `json:"movement_ids"`
}
