// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

// exclusionViolation is raised by the bookings_no_overlap constraint.
const exclusionViolation = "23P01"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const selectBookings = `
	SELECT id, customer_id, vendor_id, car_id, status, status_version,
	       pickup_at, dropoff_at, pickup_location, dropoff_location, with_driver,
	       period, rental_days, services, base_price, services_price, total_price,
	       currency, COALESCE(cancel_reason, ''), created_at, updated_at
	FROM bookings`

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, customer_id, vendor_id, car_id, status, status_version,
			pickup_at, dropoff_at, pickup_location, dropoff_location, with_driver,
			period, rental_days, services, base_price, services_price, total_price,
			currency, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20
		)`,
		b.ID, b.CustomerID, b.VendorID, b.CarID, b.Status, b.StatusVersion,
		b.PickupAt, b.DropoffAt, b.PickupLocation, b.DropOffLocation, b.WithDriver,
		b.Period, b.RentalDays, b.Services, b.Price.BasePrice, b.Price.ServicesPrice, b.Price.TotalPrice,
		b.Currency, b.CreatedAt, b.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return ErrCarUnavailable
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	b, err := scanBooking(s.db.QueryRow(ctx, selectBookings+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    cancel_reason = COALESCE(NULLIF($2::text, ''), cancel_reason),
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		to, reason, id, from, version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_events (
			booking_id, from_status, to_status, actor_type, actor_id, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.BookingID, e.FromStatus, e.ToStatus, e.ActorType, e.ActorID, e.Reason, e.CreatedAt,
	)
	return err
}

func (s *Store) ListByVendor(ctx context.Context, vendorID types.ID, status Status) ([]Booking, error) {
	if status == "" {
		return s.list(ctx, selectBookings+` WHERE vendor_id = $1 ORDER BY pickup_at DESC`, vendorID)
	}
	return s.list(ctx, selectBookings+` WHERE vendor_id = $1 AND status = $2 ORDER BY pickup_at DESC`, vendorID, status)
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]Booking, error) {
	return s.list(ctx, selectBookings+` WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

func (s *Store) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]Booking, error) {
	return s.list(ctx, selectBookings+`
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, before, limit)
}

// HasOverlap reports whether carID has a pending or confirmed booking whose
// window intersects [from, to).
func (s *Store) HasOverlap(ctx context.Context, carID types.ID, from, to time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE car_id = $1
			  AND status IN ('pending','confirmed')
			  AND pickup_at < $3
			  AND dropoff_at > $2
		)`, carID, from, to,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) list(ctx context.Context, sql string, args ...any) ([]Booking, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.VendorID, &b.CarID, &b.Status, &b.StatusVersion,
		&b.PickupAt, &b.DropoffAt, &b.PickupLocation, &b.DropOffLocation, &b.WithDriver,
		&b.Period, &b.RentalDays, &b.Services, &b.Price.BasePrice, &b.Price.ServicesPrice, &b.Price.TotalPrice,
		&b.Currency, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
