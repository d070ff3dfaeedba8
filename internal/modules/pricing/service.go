// README: Pricing service quotes rentals from stored rate cards and add-on catalogues.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

var (
	ErrNotFound   = errors.New("car rates not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("car belongs to another vendor")
)

// RateStore is the persistence the service needs; *Store implements it.
type RateStore interface {
	GetRateCard(ctx context.Context, carID types.ID) (RateCard, error)
	ListServices(ctx context.Context, carID types.ID) ([]AddOnService, error)
	UpsertService(ctx context.Context, carID types.ID, svc AddOnService) error
}

type Service struct {
	store         RateStore
	defaultPeriod RentalPeriod
}

// NewService builds a Service. An invalid defaultPeriod falls back to daily.
func NewService(store RateStore, defaultPeriod RentalPeriod) *Service {
	if !defaultPeriod.Valid() {
		defaultPeriod = PeriodDaily
	}
	return &Service{store: store, defaultPeriod: defaultPeriod}
}

type QuoteCommand struct {
	CarID      types.ID
	RentalDays int
	Period     RentalPeriod
	ServiceIDs []string
}

func (s *Service) Quote(ctx context.Context, cmd QuoteCommand) (Quote, error) {
	if cmd.CarID == "" || cmd.RentalDays < 1 {
		return Quote{}, ErrBadRequest
	}
	period := cmd.Period
	if period == "" {
		period = s.defaultPeriod
	}
	if !period.Valid() {
		return Quote{}, ErrBadRequest
	}

	card, err := s.store.GetRateCard(ctx, cmd.CarID)
	if err != nil {
		return Quote{}, err
	}
	catalog, err := s.store.ListServices(ctx, cmd.CarID)
	if err != nil {
		return Quote{}, fmt.Errorf("list services: %w", err)
	}
	services := Select(catalog, cmd.ServiceIDs)

	currency := card.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return Quote{
		CarID:      cmd.CarID,
		RentalDays: cmd.RentalDays,
		Period:     period,
		Rates:      card.Rates,
		Services:   services,
		Breakdown:  Calculate(cmd.RentalDays, card.Rates, period, services),
		Currency:   currency,
	}, nil
}

// ListServices returns the add-on catalogue of a car, nothing selected.
func (s *Service) ListServices(ctx context.Context, carID types.ID) ([]AddOnService, error) {
	return s.store.ListServices(ctx, carID)
}

// VendorOf reports which vendor owns carID.
func (s *Service) VendorOf(ctx context.Context, carID types.ID) (types.ID, error) {
	card, err := s.store.GetRateCard(ctx, carID)
	if err != nil {
		return "", err
	}
	return card.VendorID, nil
}

type AddServiceCommand struct {
	VendorID types.ID
	CarID    types.ID
	Service  AddOnService
}

// AddService creates or updates one add-on on a vendor's own car.
func (s *Service) AddService(ctx context.Context, cmd AddServiceCommand) (AddOnService, error) {
	svc := cmd.Service
	if svc.Name == "" || svc.Price < 0 {
		return AddOnService{}, ErrBadRequest
	}
	owner, err := s.VendorOf(ctx, cmd.CarID)
	if err != nil {
		return AddOnService{}, err
	}
	if owner != cmd.VendorID {
		return AddOnService{}, ErrForbidden
	}
	if svc.ID == "" {
		svc.ID = string(types.NewID())
	}
	svc.Selected = false
	if err := s.store.UpsertService(ctx, cmd.CarID, svc); err != nil {
		return AddOnService{}, err
	}
	return svc, nil
}
