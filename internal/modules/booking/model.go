// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

const (
	ActorCustomer = "customer"
	ActorVendor   = "vendor"
	ActorSystem   = "system"
)

// Actor is whoever drives a transition.
type Actor struct {
	Type string
	ID   types.ID
}

type Booking struct {
	ID              types.ID               `json:"id"`
	CustomerID      types.ID               `json:"customerId"`
	VendorID        types.ID               `json:"vendorId"`
	CarID           types.ID               `json:"carId"`
	Status          Status                 `json:"status"`
	StatusVersion   int                    `json:"statusVersion"`
	PickupAt        time.Time              `json:"pickupAt"`
	DropoffAt       time.Time              `json:"dropoffAt"`
	PickupLocation  string                 `json:"pickupLocation,omitempty"`
	DropOffLocation string                 `json:"dropOffLocation,omitempty"`
	WithDriver      bool                   `json:"withDriver"`
	Period          pricing.RentalPeriod   `json:"period"`
	RentalDays      int                    `json:"rentalDays"`
	Services        []pricing.AddOnService `json:"services"`
	Price           pricing.Breakdown      `json:"price"`
	Currency        string                 `json:"currency"`
	CancelReason    string                 `json:"cancelReason,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// VisibleTo reports whether a may read the booking.
func (b *Booking) VisibleTo(a Actor) bool {
	switch a.Type {
	case ActorSystem:
		return true
	case ActorVendor:
		return b.VendorID == a.ID
	case ActorCustomer:
		return b.CustomerID == a.ID
	}
	return false
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	Reason     string
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusNone:      {StatusPending},
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	_, ok := AllowedTransitions[s]
	return !ok
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted, StatusExpired:
		return true
	}
	return false
}
