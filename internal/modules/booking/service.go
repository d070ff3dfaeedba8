// README: Booking service implements state transitions, pricing at creation, and expiry.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/events"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

var (
	ErrInvalidState   = errors.New("invalid state transition")
	ErrNotFound       = errors.New("booking not found")
	ErrConflict       = errors.New("booking state conflict")
	ErrBadRequest     = errors.New("bad request")
	ErrForbidden      = errors.New("booking belongs to someone else")
	ErrCarUnavailable = errors.New("car is already booked for these dates")
)

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "getacar_booking_transitions_total",
	Help: "Booking status transitions by target status",
}, []string{"to"})

const expiryBatch = 100

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	ListByVendor(ctx context.Context, vendorID types.ID, status Status) ([]Booking, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]Booking, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]Booking, error)
	HasOverlap(ctx context.Context, carID types.ID, from, to time.Time) (bool, error)
}

type Pricing interface {
	Quote(ctx context.Context, cmd pricing.QuoteCommand) (pricing.Quote, error)
	VendorOf(ctx context.Context, carID types.ID) (types.ID, error)
}

type Service struct {
	repo       Repository
	pricing    Pricing
	events     events.Publisher
	pendingTTL time.Duration
	now        func() time.Time
}

// NewService builds a Service. A nil publisher drops events; a non-positive
// pendingTTL disables expiry.
func NewService(repo Repository, pricing Pricing, publisher events.Publisher, pendingTTL time.Duration) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:       repo,
		pricing:    pricing,
		events:     publisher,
		pendingTTL: pendingTTL,
		now:        time.Now,
	}
}

type CreateCommand struct {
	CustomerID      types.ID
	CarID           types.ID
	PickupDate      time.Time
	DropoffDate     time.Time
	PickupLocation  string
	DropOffLocation string
	WithDriver      bool
	Period          pricing.RentalPeriod
	ServiceIDs      []string
}

type TransitionCommand struct {
	BookingID types.ID
	Actor     Actor
	Reason    string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.CustomerID == "" || cmd.CarID == "" {
		return nil, ErrBadRequest
	}
	if cmd.PickupDate.IsZero() || !cmd.DropoffDate.After(cmd.PickupDate) {
		return nil, ErrBadRequest
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if cmd.PickupDate.Before(today) {
		return nil, ErrBadRequest
	}

	busy, err := s.repo.HasOverlap(ctx, cmd.CarID, cmd.PickupDate, cmd.DropoffDate)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrCarUnavailable
	}

	vendorID, err := s.pricing.VendorOf(ctx, cmd.CarID)
	if err != nil {
		return nil, err
	}
	days := pricing.RentalDays(cmd.PickupDate, cmd.DropoffDate)
	quote, err := s.pricing.Quote(ctx, pricing.QuoteCommand{
		CarID:      cmd.CarID,
		RentalDays: days,
		Period:     cmd.Period,
		ServiceIDs: cmd.ServiceIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("quote booking: %w", err)
	}

	now := s.now().UTC()
	b := &Booking{
		ID:              types.NewID(),
		CustomerID:      cmd.CustomerID,
		VendorID:        vendorID,
		CarID:           cmd.CarID,
		Status:          StatusPending,
		PickupAt:        cmd.PickupDate,
		DropoffAt:       cmd.DropoffDate,
		PickupLocation:  strings.TrimSpace(cmd.PickupLocation),
		DropOffLocation: strings.TrimSpace(cmd.DropOffLocation),
		WithDriver:      cmd.WithDriver,
		Period:          quote.Period,
		RentalDays:      days,
		Services:        selectedOnly(quote.Services),
		Price:           quote.Breakdown,
		Currency:        quote.Currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.record(ctx, b, StatusNone, Actor{Type: ActorCustomer, ID: cmd.CustomerID}, "")
	return b, nil
}

// Confirm accepts a pending booking on behalf of the owning vendor.
func (s *Service) Confirm(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	return s.vendorTransition(ctx, cmd, StatusConfirmed)
}

func (s *Service) Reject(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	return s.vendorTransition(ctx, cmd, StatusRejected)
}

func (s *Service) Complete(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	return s.vendorTransition(ctx, cmd, StatusCompleted)
}

// Cancel is allowed for the customer who made the booking and for its vendor.
func (s *Service) Cancel(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	if cmd.Actor.Type != ActorCustomer && cmd.Actor.Type != ActorVendor {
		return nil, ErrForbidden
	}
	b, err := s.repo.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !b.VisibleTo(cmd.Actor) {
		return nil, ErrForbidden
	}
	return s.transition(ctx, b, StatusCancelled, cmd.Actor, cmd.Reason)
}

func (s *Service) Get(ctx context.Context, id types.ID, viewer Actor) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.VisibleTo(viewer) {
		// Do not leak existence to other users.
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) ListForVendor(ctx context.Context, vendorID types.ID, status Status) ([]Booking, error) {
	if status != "" && !status.Valid() {
		return nil, ErrBadRequest
	}
	return s.repo.ListByVendor(ctx, vendorID, status)
}

func (s *Service) ListForCustomer(ctx context.Context, customerID types.ID) ([]Booking, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// RunExpiryMonitor expires stale pending bookings every tick until ctx ends.
func (s *Service) RunExpiryMonitor(ctx context.Context, tick time.Duration) {
	if s.pendingTTL <= 0 || tick <= 0 {
		return
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpirePending(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "booking expiry sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired pending bookings", "count", n)
			}
		}
	}
}

// ExpirePending moves pending bookings older than the TTL to expired and
// returns how many it moved. Bookings that changed concurrently are skipped.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	if s.pendingTTL <= 0 {
		return 0, nil
	}
	stale, err := s.repo.ListPendingBefore(ctx, s.now().Add(-s.pendingTTL), expiryBatch)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		_, err := s.transition(ctx, &stale[i], StatusExpired, Actor{Type: ActorSystem}, "pending timeout")
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		default:
			return expired, err
		}
	}
	return expired, nil
}

func (s *Service) vendorTransition(ctx context.Context, cmd TransitionCommand, to Status) (*Booking, error) {
	if cmd.Actor.Type != ActorVendor {
		return nil, ErrForbidden
	}
	b, err := s.repo.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.VendorID != cmd.Actor.ID {
		return nil, ErrForbidden
	}
	return s.transition(ctx, b, to, cmd.Actor, cmd.Reason)
}

func (s *Service) transition(ctx context.Context, b *Booking, to Status, actor Actor, reason string) (*Booking, error) {
	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidState
	}
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	from := b.Status
	next := *b
	next.Status = to
	next.StatusVersion++
	next.UpdatedAt = s.now().UTC()
	if reason != "" {
		next.CancelReason = reason
	}
	s.record(ctx, &next, from, actor, reason)
	return &next, nil
}

// record appends the audit event and notifies the vendor. Neither failure
// undoes a committed transition.
func (s *Service) record(ctx context.Context, b *Booking, from Status, actor Actor, reason string) {
	var actorID *types.ID
	if actor.ID != "" {
		id := actor.ID
		actorID = &id
	}
	if err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   b.Status,
		ActorType:  actor.Type,
		ActorID:    actorID,
		Reason:     reason,
		CreatedAt:  b.UpdatedAt,
	}); err != nil {
		slog.WarnContext(ctx, "append booking event failed", "booking_id", b.ID, "error", err)
	}
	transitionsTotal.WithLabelValues(string(b.Status)).Inc()

	if err := s.events.Publish(ctx, events.BookingEvent{
		Type:       eventType(b.Status),
		BookingID:  string(b.ID),
		VendorID:   string(b.VendorID),
		CustomerID: string(b.CustomerID),
		CarID:      string(b.CarID),
		Status:     string(b.Status),
		TotalPrice: b.Price.TotalPrice,
		OccurredAt: b.UpdatedAt,
	}); err != nil {
		slog.WarnContext(ctx, "publish booking event failed", "booking_id", b.ID, "status", b.Status, "error", err)
	}
}

func eventType(s Status) events.Type {
	switch s {
	case StatusPending:
		return events.BookingCreated
	case StatusConfirmed:
		return events.BookingConfirmed
	case StatusRejected:
		return events.BookingRejected
	case StatusCancelled:
		return events.BookingCancelled
	case StatusCompleted:
		return events.BookingCompleted
	case StatusExpired:
		return events.BookingExpired
	}
	return events.Type("booking." + string(s))
}

func selectedOnly(services []pricing.AddOnService) []pricing.AddOnService {
	out := make([]pricing.AddOnService, 0, len(services))
	for _, svc := range services {
		if svc.Selected {
			out = append(out, svc)
		}
	}
	return out
}
