/**
 * @description
 * Data access layer for movements, tariffs, invoices, stands and rotations.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/analytics"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrRotationConflict means at least one movement was paired by a concurrent run.
	ErrRotationConflict = errors.New("movement already assigned to a rotation")
)

// Repository handles database operations for the billing and analytics service.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const movementColumns = `
	id, airport_id, COALESCE(flight_number, ''), COALESCE(registration, ''),
	COALESCE(aircraft_type, ''), movement_type, scheduled_time, status,
	stand_id, rotation_id, traffic_type,
	COALESCE(origin, ''), COALESCE(destination, ''),
	COALESCE(pax_full, 0), COALESCE(pax_half, 0), COALESCE(pax_transit, 0), COALESCE(pax_connecting, 0),
	COALESCE(freight_kg, 0), COALESCE(mail_kg, 0), mtow_kg, billable
`

func scanMovement(row pgx.Row) (domain.Movement, error) {
	var (
		m            domain.Movement
		direction    string
		status       string
		trafficClass *string
	)
	err := row.Scan(
		&m.ID,
		&m.AirportID,
		&m.FlightNumber,
		&m.Registration,
		&m.AircraftType,
		&direction,
		&m.ScheduledTime,
		&status,
		&m.StandID,
		&m.RotationID,
		&trafficClass,
		&m.Origin,
		&m.Destination,
		&m.Passengers.Full,
		&m.Passengers.Half,
		&m.Passengers.Transit,
		&m.Passengers.Connecting,
		&m.FreightKg,
		&m.MailKg,
		&m.MTOWKg,
		&m.Billable,
	)
	if err != nil {
		return domain.Movement{}, err
	}
	m.Direction = domain.Direction(direction)
	m.Status = domain.MovementStatus(status)
	m.ScheduledTime = m.ScheduledTime.UTC()
	if trafficClass != nil {
		tc := domain.TrafficClass(*trafficClass)
		m.TrafficClass = &tc
	}
	return m, nil
}

func (r *Repository) queryMovements(ctx context.Context, query string, args ...interface{}) ([]domain.Movement, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// withAirportFilter appends an airport_id condition to a WHERE clause when
// airportID is set. An empty id leaves the query unscoped.
func withAirportFilter(query, airportID string, args ...interface{}) (string, []interface{}) {
	if airportID == "" {
		return query, args
	}
	args = append(args, airportID)
	return fmt.Sprintf("%s AND airport_id = $%d", query, len(args)), args
}

// GetMovementsByIDs returns the movements that exist among ids. Unknown ids are simply absent.
func (r *Repository) GetMovementsByIDs(ctx context.Context, ids []string) ([]domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = ANY($1)`
	return r.queryMovements(ctx, query, ids)
}

// ListMovements returns movements scheduled within the inclusive filter range.
func (r *Repository) ListMovements(ctx context.Context, f analytics.Filter) ([]domain.Movement, error) {
	query, args := withAirportFilter(`SELECT `+movementColumns+`
		FROM movements
		WHERE scheduled_time >= $1 AND scheduled_time <= $2`, f.AirportID, f.Start, f.End)
	return r.queryMovements(ctx, query+` ORDER BY scheduled_time, id`, args...)
}

// ListUnpairedMovements returns an airport's movements that have no rotation yet.
func (r *Repository) ListUnpairedMovements(ctx context.Context, airportID string) ([]domain.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE airport_id = $1 AND rotation_id IS NULL
		ORDER BY scheduled_time, id`
	return r.queryMovements(ctx, query, airportID)
}

// ListBillingRates returns the airport's rates together with global defaults.
// Active and validity filtering is left to tariff resolution.
func (r *Repository) ListBillingRates(ctx context.Context, airportID string) ([]domain.TariffRow, error) {
	query := `
		SELECT id, airport_id, fee_type, COALESCE(subtype, ''), value::text, currency,
		       COALESCE(unit, ''), active, valid_from, valid_until
		FROM billing_rates
		WHERE airport_id = $1 OR airport_id IS NULL
	`
	rows, err := r.db.Query(ctx, query, airportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.TariffRow
	for rows.Next() {
		var (
			rate    domain.TariffRow
			feeType string
			value   string
		)
		if err := rows.Scan(
			&rate.ID,
			&rate.AirportID,
			&feeType,
			&rate.Subtype,
			&value,
			&rate.Currency,
			&rate.Unit,
			&rate.Active,
			&rate.ValidFrom,
			&rate.ValidUntil,
		); err != nil {
			return nil, err
		}
		rate.FeeType = domain.FeeType(feeType)
		if rate.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("billing rate %s: %w", rate.ID, err)
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

// GetAircraftTypes returns the known aircraft types keyed by code.
func (r *Repository) GetAircraftTypes(ctx context.Context, codes []string) (map[string]domain.AircraftType, error) {
	rows, err := r.db.Query(ctx, "SELECT code, mtow_kg FROM aircraft_types WHERE code = ANY($1)", codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[string]domain.AircraftType, len(codes))
	for rows.Next() {
		var t domain.AircraftType
		if err := rows.Scan(&t.Code, &t.DefaultMTOWKg); err != nil {
			return nil, err
		}
		types[t.Code] = t
	}
	return types, rows.Err()
}

// ListInvoices returns invoice records created within the inclusive filter range.
func (r *Repository) ListInvoices(ctx context.Context, f analytics.Filter) ([]domain.InvoiceRecord, error) {
	query, args := withAirportFilter(`
		SELECT id, airport_id, created_at, total::text, status
		FROM invoices
		WHERE created_at >= $1 AND created_at <= $2`, f.AirportID, f.Start, f.End)
	rows, err := r.db.Query(ctx, query+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.InvoiceRecord
	for rows.Next() {
		var (
			inv   domain.InvoiceRecord
			total string
		)
		if err := rows.Scan(&inv.ID, &inv.AirportID, &inv.CreatedAt, &total, &inv.Status); err != nil {
			return nil, err
		}
		if inv.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invoice %s: %w", inv.ID, err)
		}
		inv.CreatedAt = inv.CreatedAt.UTC()
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// CountStands counts the stands of one airport, or of every airport when airportID is empty.
func (r *Repository) CountStands(ctx context.Context, airportID string) (int, error) {
	var n int
	query, args := withAirportFilter("SELECT COUNT(*) FROM stands WHERE TRUE", airportID)
	err := r.db.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// CountMovementsByAircraftType groups the filtered movements by aircraft type code.
func (r *Repository) CountMovementsByAircraftType(ctx context.Context, f analytics.Filter) (map[string]int, error) {
	query, args := withAirportFilter(`
		SELECT UPPER(TRIM(aircraft_type)) AS code, COUNT(*)
		FROM movements
		WHERE scheduled_time >= $1 AND scheduled_time <= $2
		  AND COALESCE(TRIM(aircraft_type), '') <> ''`, f.AirportID, f.Start, f.End)
	rows, err := r.db.Query(ctx, query+` GROUP BY 1`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			code  string
			count int
		)
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		counts[code] = count
	}
	return counts, rows.Err()
}

// ListAirportIDs returns every airport id in a stable order.
func (r *Repository) ListAirportIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, "SELECT id FROM airports ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateRotation inserts the rotation and links its movements in one
// transaction. Only movements still without a rotation are linked; if any was
// claimed meanwhile the transaction is rolled back with ErrRotationConflict.
func (r *Repository) CreateRotation(ctx context.Context, rot domain.Rotation) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO rotations (id, airport_id, created_at) VALUES ($1, $2, $3)",
		rot.ID, rot.AirportID, time.Now().UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrRotationConflict
		}
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE movements
		SET rotation_id = $1, updated_at = NOW()
		WHERE id = ANY($2) AND airport_id = $3 AND rotation_id IS NULL
	`, rot.ID, rot.MovementIDs, rot.AirportID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() != int64(len(rot.MovementIDs)) {
		return 0, ErrRotationConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
