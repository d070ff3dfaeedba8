// README: Booking service tests (state machine, flows, ownership, expiry) on an in-memory repository.
package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/events"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusNone, StatusPending, true},
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusExpired, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		// skipping states
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusRejected, false},
		{StatusConfirmed, StatusExpired, false},
		// terminal states have no outgoing transitions
		{StatusRejected, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusExpired, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusExpired, StatusCompleted} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

type memRepo struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	events   []Event
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: map[types.ID]*Booking{}}
}

func (m *memRepo) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	if reason != "" {
		b.CancelReason = reason
	}
	return true, nil
}

func (m *memRepo) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memRepo) ListByVendor(_ context.Context, vendorID types.ID, status Status) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.VendorID == vendorID && (status == "" || b.Status == status) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memRepo) ListByCustomer(_ context.Context, customerID types.ID) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memRepo) ListPendingBefore(_ context.Context, before time.Time, limit int) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.Status == StatusPending && b.CreatedAt.Before(before) && len(out) < limit {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memRepo) HasOverlap(_ context.Context, carID types.ID, from, to time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.CarID != carID || (b.Status != StatusPending && b.Status != StatusConfirmed) {
			continue
		}
		if b.PickupAt.Before(to) && b.DropoffAt.After(from) {
			return true, nil
		}
	}
	return false, nil
}

type fakePricing struct{}

func (fakePricing) VendorOf(_ context.Context, carID types.ID) (types.ID, error) {
	if carID == "missing" {
		return "", pricing.ErrNotFound
	}
	return "v1", nil
}

func (fakePricing) Quote(_ context.Context, cmd pricing.QuoteCommand) (pricing.Quote, error) {
	rates := pricing.Rates{Daily: 100, Weekly: 600, Monthly: 2000}
	catalog := []pricing.AddOnService{
		{ID: "gps", Name: "GPS", Price: 25},
		{ID: "seat", Name: "Child seat", Price: 40},
	}
	services := pricing.Select(catalog, cmd.ServiceIDs)
	period := cmd.Period
	if period == "" {
		period = pricing.PeriodDaily
	}
	return pricing.Quote{
		CarID:      cmd.CarID,
		RentalDays: cmd.RentalDays,
		Period:     period,
		Rates:      rates,
		Services:   services,
		Breakdown:  pricing.Calculate(cmd.RentalDays, rates, period, services),
		Currency:   types.DefaultCurrency,
	}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var testNow = time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memRepo, *recordingPublisher) {
	t.Helper()
	repo := newMemRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, fakePricing{}, pub, 24*time.Hour)
	svc.now = func() time.Time { return testNow }
	return svc, repo, pub
}

func mustCreate(t *testing.T, svc *Service, customer types.ID, from, to time.Time) *Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:  customer,
		CarID:       "car1",
		PickupDate:  from,
		DropoffDate: to,
		ServiceIDs:  []string{"gps"},
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func day(n int) time.Time {
	return time.Date(2026, 11, n, 10, 0, 0, 0, time.UTC)
}

func TestCreate_PricesBooking(t *testing.T) {
	svc, repo, pub := newTestService(t)
	b := mustCreate(t, svc, "c1", day(2), day(5))

	if b.Status != StatusPending || b.VendorID != "v1" {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if b.RentalDays != 3 {
		t.Errorf("RentalDays = %d, want 3", b.RentalDays)
	}
	want := pricing.Breakdown{BasePrice: 300, ServicesPrice: 25, TotalPrice: 325}
	if b.Price != want {
		t.Errorf("Price = %+v, want %+v", b.Price, want)
	}
	if len(b.Services) != 1 || b.Services[0].ID != "gps" {
		t.Errorf("Services = %+v, want only gps", b.Services)
	}
	if len(repo.events) != 1 || repo.events[0].FromStatus != StatusNone || repo.events[0].ToStatus != StatusPending {
		t.Errorf("events = %+v", repo.events)
	}
	if got := pub.types(); len(got) != 1 || got[0] != events.BookingCreated {
		t.Errorf("published = %v", got)
	}
}

func TestCreate_PartialDayRoundsUp(t *testing.T) {
	svc, _, _ := newTestService(t)
	b := mustCreate(t, svc, "c1", day(2), day(4).Add(3*time.Hour))
	if b.RentalDays != 3 {
		t.Errorf("RentalDays = %d, want 3", b.RentalDays)
	}
}

func TestCreate_InvalidRequests(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cases := []struct {
		name string
		cmd  CreateCommand
		want error
	}{
		{"missing customer", CreateCommand{CarID: "car1", PickupDate: day(2), DropoffDate: day(3)}, ErrBadRequest},
		{"missing car", CreateCommand{CustomerID: "c1", PickupDate: day(2), DropoffDate: day(3)}, ErrBadRequest},
		{"dropoff before pickup", CreateCommand{CustomerID: "c1", CarID: "car1", PickupDate: day(3), DropoffDate: day(2)}, ErrBadRequest},
		{"same instant", CreateCommand{CustomerID: "c1", CarID: "car1", PickupDate: day(3), DropoffDate: day(3)}, ErrBadRequest},
		{"pickup in the past", CreateCommand{CustomerID: "c1", CarID: "car1", PickupDate: testNow.AddDate(0, 0, -2), DropoffDate: day(3)}, ErrBadRequest},
		{"unknown car", CreateCommand{CustomerID: "c1", CarID: "missing", PickupDate: day(2), DropoffDate: day(3)}, pricing.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.cmd); !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreate_RejectsOverlap(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, "c1", day(2), day(5))

	_, err := svc.Create(context.Background(), CreateCommand{
		CustomerID: "c2", CarID: "car1", PickupDate: day(4), DropoffDate: day(6),
	})
	if !errors.Is(err, ErrCarUnavailable) {
		t.Fatalf("error = %v, want ErrCarUnavailable", err)
	}

	// Back-to-back rentals share only the boundary instant.
	if _, err := svc.Create(context.Background(), CreateCommand{
		CustomerID: "c2", CarID: "car1", PickupDate: day(5), DropoffDate: day(6),
	}); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

func TestBookingFlowHappyPath(t *testing.T) {
	svc, repo, pub := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, "c1", day(2), day(5))
	vendor := Actor{Type: ActorVendor, ID: "v1"}

	if _, err := svc.Confirm(ctx, TransitionCommand{BookingID: b.ID, Actor: vendor}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, err := svc.Complete(ctx, TransitionCommand{BookingID: b.ID, Actor: vendor})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != StatusCompleted || got.StatusVersion != 2 {
		t.Errorf("final = %s v%d, want completed v2", got.Status, got.StatusVersion)
	}
	if len(repo.events) != 3 {
		t.Errorf("len(events) = %d, want 3", len(repo.events))
	}
	want := []events.Type{events.BookingCreated, events.BookingConfirmed, events.BookingCompleted}
	gotTypes := pub.types()
	if len(gotTypes) != len(want) {
		t.Fatalf("published = %v, want %v", gotTypes, want)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Errorf("published[%d] = %s, want %s", i, gotTypes[i], want[i])
		}
	}
}

func TestVendorTransitions_Ownership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, "c1", day(2), day(5))

	if _, err := svc.Confirm(ctx, TransitionCommand{BookingID: b.ID, Actor: Actor{Type: ActorVendor, ID: "v2"}}); !errors.Is(err, ErrForbidden) {
		t.Errorf("other vendor confirm error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Confirm(ctx, TransitionCommand{BookingID: b.ID, Actor: Actor{Type: ActorCustomer, ID: "c1"}}); !errors.Is(err, ErrForbidden) {
		t.Errorf("customer confirm error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Reject(ctx, TransitionCommand{BookingID: "nope", Actor: Actor{Type: ActorVendor, ID: "v1"}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing booking error = %v, want ErrNotFound", err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	vendor := Actor{Type: ActorVendor, ID: "v1"}
	b := mustCreate(t, svc, "c1", day(2), day(5))

	if _, err := svc.Complete(ctx, TransitionCommand{BookingID: b.ID, Actor: vendor}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("complete pending error = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Reject(ctx, TransitionCommand{BookingID: b.ID, Actor: vendor, Reason: "maintenance"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Confirm(ctx, TransitionCommand{BookingID: b.ID, Actor: vendor}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("confirm rejected error = %v, want ErrInvalidState", err)
	}
}

func TestCancel(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, "c1", day(2), day(5))

	if _, err := svc.Cancel(ctx, TransitionCommand{BookingID: b.ID, Actor: Actor{Type: ActorCustomer, ID: "c2"}}); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger cancel error = %v, want ErrForbidden", err)
	}
	got, err := svc.Cancel(ctx, TransitionCommand{BookingID: b.ID, Actor: Actor{Type: ActorCustomer, ID: "c1"}, Reason: "plans changed"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled || got.CancelReason != "plans changed" {
		t.Errorf("cancelled = %+v", got)
	}
	last := repo.events[len(repo.events)-1]
	if last.ActorType != ActorCustomer || last.ActorID == nil || *last.ActorID != "c1" {
		t.Errorf("last event actor = %s %v", last.ActorType, last.ActorID)
	}

	// A cancelled booking frees the car.
	mustCreate(t, svc, "c3", day(2), day(5))
}

func TestGet_HidesOtherCustomersBookings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, "c1", day(2), day(5))

	if _, err := svc.Get(ctx, b.ID, Actor{Type: ActorCustomer, ID: "c1"}); err != nil {
		t.Errorf("owner get: %v", err)
	}
	if _, err := svc.Get(ctx, b.ID, Actor{Type: ActorVendor, ID: "v1"}); err != nil {
		t.Errorf("vendor get: %v", err)
	}
	if _, err := svc.Get(ctx, b.ID, Actor{Type: ActorCustomer, ID: "c2"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger get error = %v, want ErrNotFound", err)
	}
}

func TestListForVendor_StatusFilter(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b1 := mustCreate(t, svc, "c1", day(2), day(3))
	mustCreate(t, svc, "c2", day(4), day(5))
	if _, err := svc.Confirm(ctx, TransitionCommand{BookingID: b1.ID, Actor: Actor{Type: ActorVendor, ID: "v1"}}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	all, err := svc.ListForVendor(ctx, "v1", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("all = %d, %v", len(all), err)
	}
	confirmed, err := svc.ListForVendor(ctx, "v1", StatusConfirmed)
	if err != nil || len(confirmed) != 1 || confirmed[0].ID != b1.ID {
		t.Fatalf("confirmed = %+v, %v", confirmed, err)
	}
	if _, err := svc.ListForVendor(ctx, "v1", Status("bogus")); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bogus status error = %v, want ErrBadRequest", err)
	}
	mine, err := svc.ListForCustomer(ctx, "c2")
	if err != nil || len(mine) != 1 {
		t.Errorf("customer list = %d, %v", len(mine), err)
	}
}

func TestExpirePending(t *testing.T) {
	svc, repo, pub := newTestService(t)
	ctx := context.Background()
	old := mustCreate(t, svc, "c1", day(2), day(3))
	confirmed := mustCreate(t, svc, "c2", day(4), day(5))
	if _, err := svc.Confirm(ctx, TransitionCommand{BookingID: confirmed.ID, Actor: Actor{Type: ActorVendor, ID: "v1"}}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	svc.now = func() time.Time { return testNow.Add(25 * time.Hour) }
	fresh := mustCreate(t, svc, "c3", day(6), day(7))

	n, err := svc.ExpirePending(ctx)
	if err != nil {
		t.Fatalf("ExpirePending: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d, want 1", n)
	}
	if got, _ := repo.Get(ctx, old.ID); got.Status != StatusExpired {
		t.Errorf("old booking status = %s, want expired", got.Status)
	}
	if got, _ := repo.Get(ctx, fresh.ID); got.Status != StatusPending {
		t.Errorf("fresh booking status = %s, want pending", got.Status)
	}
	if got, _ := repo.Get(ctx, confirmed.ID); got.Status != StatusConfirmed {
		t.Errorf("confirmed booking status = %s, want confirmed", got.Status)
	}
	published := pub.types()
	if published[len(published)-1] != events.BookingExpired {
		t.Errorf("last published = %s, want booking.expired", published[len(published)-1])
	}
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("broker down")
	b := mustCreate(t, svc, "c1", day(2), day(5))
	if _, err := svc.Confirm(context.Background(), TransitionCommand{BookingID: b.ID, Actor: Actor{Type: ActorVendor, ID: "v1"}}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
}

func TestConcurrentConfirmVsCancel(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, "c1", day(2), day(5))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	start := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, err := svc.Confirm(ctx, TransitionCommand{BookingID: b.ID, Actor: Actor{Type: ActorVendor, ID: "v1"}})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		<-start
		_, err := svc.Cancel(ctx, TransitionCommand{BookingID: b.ID, Actor: Actor{Type: ActorCustomer, ID: "c1"}})
		errs <- err
	}()
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success < 1 {
		t.Fatalf("expected at least one success, got %d", success)
	}
}
