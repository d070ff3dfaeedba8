package handlers

import (
	"context"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/ai"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/booking"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/car"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/vendor"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

// The interfaces below are what the handlers call; the module services
// implement them.

type CarService interface {
	Search(ctx context.Context, f filter.CarsFilters, vendorID string) ([]car.Car, error)
	Get(ctx context.Context, id types.ID) (*car.Car, error)
	Create(ctx context.Context, cmd car.CreateCommand) (*car.Car, error)
	UpdateRates(ctx context.Context, vendorID, carID types.ID, r pricing.Rates) error
}

type PricingService interface {
	Quote(ctx context.Context, cmd pricing.QuoteCommand) (pricing.Quote, error)
	ListServices(ctx context.Context, carID types.ID) ([]pricing.AddOnService, error)
	AddService(ctx context.Context, cmd pricing.AddServiceCommand) (pricing.AddOnService, error)
}

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
	Get(ctx context.Context, id types.ID, viewer booking.Actor) (*booking.Booking, error)
	Confirm(ctx context.Context, cmd booking.TransitionCommand) (*booking.Booking, error)
	Reject(ctx context.Context, cmd booking.TransitionCommand) (*booking.Booking, error)
	Complete(ctx context.Context, cmd booking.TransitionCommand) (*booking.Booking, error)
	Cancel(ctx context.Context, cmd booking.TransitionCommand) (*booking.Booking, error)
	ListForVendor(ctx context.Context, vendorID types.ID, status booking.Status) ([]booking.Booking, error)
	ListForCustomer(ctx context.Context, customerID types.ID) ([]booking.Booking, error)
}

type VendorService interface {
	List(ctx context.Context) ([]vendor.Vendor, error)
	Get(ctx context.Context, id types.ID) (*vendor.Vendor, error)
	ListBranches(ctx context.Context, vendorID types.ID) ([]vendor.Branch, error)
	CreateBranch(ctx context.Context, cmd vendor.CreateBranchCommand) (*vendor.Branch, error)
	NearbyBranches(ctx context.Context, p types.Point, radiusKm float64) ([]vendor.NearbyBranch, error)
}

type AISearchService interface {
	Search(ctx context.Context, uid, message string, hints map[string]string) (*ai.SearchIntent, error)
	Remaining(ctx context.Context, uid string) (int, error)
}
