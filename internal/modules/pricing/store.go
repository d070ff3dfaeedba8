// README: Pricing store backed by PostgreSQL (cars rate columns + car_services).
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRateCard(ctx context.Context, carID types.ID) (RateCard, error) {
	card := RateCard{CarID: carID}
	var vendorID string
	err := s.db.QueryRow(ctx, `
		SELECT vendor_id, COALESCE(daily_rate, 0), COALESCE(weekly_rate, 0), COALESCE(monthly_rate, 0), currency
		FROM cars
		WHERE id = $1`, string(carID),
	).Scan(&vendorID, &card.Rates.Daily, &card.Rates.Weekly, &card.Rates.Monthly, &card.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return RateCard{}, ErrNotFound
	}
	if err != nil {
		return RateCard{}, err
	}
	card.VendorID = types.ID(vendorID)
	return card, nil
}

func (s *Store) ListServices(ctx context.Context, carID types.ID) ([]AddOnService, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(price, 0)
		FROM car_services
		WHERE car_id = $1
		ORDER BY name`, string(carID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AddOnService
	for rows.Next() {
		var svc AddOnService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Price); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) UpsertService(ctx context.Context, carID types.ID, svc AddOnService) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO car_services (id, car_id, name, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (car_id, id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`,
		svc.ID, string(carID), svc.Name, svc.Price,
	)
	return err
}
