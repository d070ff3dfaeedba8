// README: Car store backed by PostgreSQL.
package car

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Search(ctx context.Context, f filter.CarsFilters, vendorID string) ([]Car, error) {
	sql, args := searchQuery(f, vendorID)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cars := []Car{}
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Car, error) {
	row := s.db.QueryRow(ctx, selectCars+"\n\tWHERE c.id = $1", string(id))
	c, err := scanCar(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Create(ctx context.Context, c *Car) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO cars (
			id, vendor_id, name, type, fuel_type, transmission,
			branch_name, location, seats, with_driver, image_url,
			daily_rate, weekly_rate, monthly_rate, currency, active, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, TRUE, $16
		)`,
		string(c.ID), string(c.VendorID), c.Name, c.Type, c.FuelType, c.Transmission,
		c.Branch, c.Location, c.Seats, c.WithDriver, c.ImageURL,
		c.Rates.Daily, c.Rates.Weekly, c.Rates.Monthly, c.Currency, c.CreatedAt,
	)
	return err
}

// UpdateRates changes the rate table of a car owned by vendorID. It
// reports false when no such car exists for that vendor.
func (s *Store) UpdateRates(ctx context.Context, vendorID, carID types.ID, r pricing.Rates) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE cars
		SET daily_rate = $1, weekly_rate = $2, monthly_rate = $3, updated_at = $4
		WHERE id = $5 AND vendor_id = $6`,
		r.Daily, r.Weekly, r.Monthly, time.Now(), string(carID), string(vendorID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanCar(row pgx.Row) (Car, error) {
	var c Car
	var id, vendorID string
	err := row.Scan(
		&id, &vendorID, &c.VendorName, &c.Name, &c.Type, &c.FuelType, &c.Transmission,
		&c.Branch, &c.Location, &c.Seats, &c.WithDriver, &c.ImageURL,
		&c.Rates.Daily, &c.Rates.Weekly, &c.Rates.Monthly,
		&c.Currency, &c.CreatedAt,
	)
	c.ID = types.ID(id)
	c.VendorID = types.ID(vendorID)
	return c, err
}
