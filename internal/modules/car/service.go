// README: Car service: filtered search with a short Redis cache, plus vendor fleet management.
package car

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

var (
	ErrNotFound   = errors.New("car not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("car belongs to another vendor")
)

const searchCacheKeyPrefix = "cars:search:"

// Finder is the persistence the service needs; *Store implements it.
type Finder interface {
	Search(ctx context.Context, f filter.CarsFilters, vendorID string) ([]Car, error)
	Get(ctx context.Context, id types.ID) (*Car, error)
	Create(ctx context.Context, c *Car) error
	UpdateRates(ctx context.Context, vendorID, carID types.ID, r pricing.Rates) (bool, error)
}

type Service struct {
	store    Finder
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService builds a Service. A nil cache disables result caching.
func NewService(store Finder, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL}
}

// Search returns the active cars matching f, cheapest first.
func (s *Service) Search(ctx context.Context, f filter.CarsFilters, vendorID string) ([]Car, error) {
	key := searchCacheKey(f, vendorID)
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key).Result(); err == nil {
			var cars []Car
			if err := json.Unmarshal([]byte(val), &cars); err == nil {
				return cars, nil
			}
		}
	}

	cars, err := s.store.Search(ctx, f, vendorID)
	if err != nil {
		return nil, fmt.Errorf("search cars: %w", err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		data, _ := json.Marshal(cars)
		if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
			slog.WarnContext(ctx, "car search cache write failed", "error", err)
		}
	}
	return cars, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Car, error) {
	return s.store.Get(ctx, id)
}

type CreateCommand struct {
	VendorID     types.ID
	Name         string
	Type         string
	FuelType     string
	Transmission string
	Branch       string
	Location     string
	Seats        int
	WithDriver   bool
	ImageURL     string
	Rates        pricing.Rates
	Currency     string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Car, error) {
	if cmd.VendorID == "" || strings.TrimSpace(cmd.Name) == "" || cmd.Type == "" {
		return nil, ErrBadRequest
	}
	if !validRates(cmd.Rates) {
		return nil, ErrBadRequest
	}
	currency := cmd.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	c := &Car{
		ID:           types.NewID(),
		VendorID:     cmd.VendorID,
		Name:         strings.TrimSpace(cmd.Name),
		Type:         cmd.Type,
		FuelType:     cmd.FuelType,
		Transmission: cmd.Transmission,
		Branch:       cmd.Branch,
		Location:     cmd.Location,
		Seats:        cmd.Seats,
		WithDriver:   cmd.WithDriver,
		ImageURL:     cmd.ImageURL,
		Rates:        cmd.Rates,
		Currency:     currency,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateRates(ctx context.Context, vendorID, carID types.ID, r pricing.Rates) error {
	if !validRates(r) {
		return ErrBadRequest
	}
	ok, err := s.store.UpdateRates(ctx, vendorID, carID, r)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	// Tell "no such car" apart from "someone else's car".
	if _, err := s.store.Get(ctx, carID); err != nil {
		return err
	}
	return ErrForbidden
}

func validRates(r pricing.Rates) bool {
	return r.Daily >= 0 && r.Weekly >= 0 && r.Monthly >= 0 && r.Daily+r.Weekly+r.Monthly > 0
}

func searchCacheKey(f filter.CarsFilters, vendorID string) string {
	q := filter.Serialize(f)
	if vendorID != "" {
		q.Set(filter.KeyVendorID, vendorID)
	}
	return searchCacheKeyPrefix + q.Encode()
}
