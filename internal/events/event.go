// README: Booking lifecycle events published to vendors' notification pipeline.
package events

import (
	"context"
	"time"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingConfirmed Type = "booking.confirmed"
	BookingRejected  Type = "booking.rejected"
	BookingCancelled Type = "booking.cancelled"
	BookingCompleted Type = "booking.completed"
	BookingExpired   Type = "booking.expired"
)

type BookingEvent struct {
	Type       Type      `json:"type"`
	BookingID  string    `json:"booking_id"`
	VendorID   string    `json:"vendor_id"`
	CustomerID string    `json:"customer_id"`
	CarID      string    `json:"car_id"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers booking events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e BookingEvent) error
	Close() error
}

// Nop drops every event; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, BookingEvent) error { return nil }
func (Nop) Close() error                                { return nil }
