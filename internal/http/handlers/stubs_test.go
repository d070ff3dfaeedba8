package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/ai"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/infra"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/booking"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/car"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/vendor"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.IDToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.IDToken, error) {
	return s.token, s.err
}

func makeVerifier(uid, role string) *stubTokenVerifier {
	claims := map[string]interface{}{}
	if role != "" {
		claims["role"] = role
	}
	return &stubTokenVerifier{token: &infra.IDToken{UID: uid, Claims: claims}}
}

type stubCars struct {
	cars         []car.Car
	err          error
	gotFilters   filter.CarsFilters
	gotVendorID  string
	updatedRates *pricing.Rates
}

func (s *stubCars) Search(_ context.Context, f filter.CarsFilters, vendorID string) ([]car.Car, error) {
	s.gotFilters, s.gotVendorID = f, vendorID
	return s.cars, s.err
}

func (s *stubCars) Get(_ context.Context, id types.ID) (*car.Car, error) {
	for _, c := range s.cars {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, car.ErrNotFound
}

func (s *stubCars) Create(_ context.Context, cmd car.CreateCommand) (*car.Car, error) {
	return &car.Car{ID: "new", VendorID: cmd.VendorID, Name: cmd.Name}, nil
}

func (s *stubCars) UpdateRates(_ context.Context, vendorID, _ types.ID, r pricing.Rates) error {
	if vendorID != "v1" {
		return car.ErrForbidden
	}
	s.updatedRates = &r
	return nil
}

type stubPricing struct {
	got pricing.QuoteCommand
}

func (s *stubPricing) Quote(_ context.Context, cmd pricing.QuoteCommand) (pricing.Quote, error) {
	s.got = cmd
	if cmd.CarID == "missing" {
		return pricing.Quote{}, pricing.ErrNotFound
	}
	rates := pricing.Rates{Daily: 100}
	services := pricing.Select([]pricing.AddOnService{{ID: "gps", Name: "GPS", Price: 25}}, cmd.ServiceIDs)
	return pricing.Quote{
		CarID:      cmd.CarID,
		RentalDays: cmd.RentalDays,
		Period:     pricing.PeriodDaily,
		Rates:      rates,
		Services:   services,
		Breakdown:  pricing.Calculate(cmd.RentalDays, rates, pricing.PeriodDaily, services),
		Currency:   types.DefaultCurrency,
	}, nil
}

func (s *stubPricing) ListServices(context.Context, types.ID) ([]pricing.AddOnService, error) {
	return nil, nil
}

func (s *stubPricing) AddService(_ context.Context, cmd pricing.AddServiceCommand) (pricing.AddOnService, error) {
	return cmd.Service, nil
}

type stubBookings struct {
	created *booking.CreateCommand
	lastCmd booking.TransitionCommand
	err     error
}

func (s *stubBookings) Create(_ context.Context, cmd booking.CreateCommand) (*booking.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &cmd
	return &booking.Booking{ID: "b1", CustomerID: cmd.CustomerID, CarID: cmd.CarID, Status: booking.StatusPending}, nil
}

func (s *stubBookings) Get(_ context.Context, id types.ID, viewer booking.Actor) (*booking.Booking, error) {
	b := &booking.Booking{ID: id, CustomerID: "c1", VendorID: "v1", Status: booking.StatusPending}
	if !b.VisibleTo(viewer) {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (s *stubBookings) transition(cmd booking.TransitionCommand, to booking.Status) (*booking.Booking, error) {
	s.lastCmd = cmd
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Booking{ID: cmd.BookingID, Status: to}, nil
}

func (s *stubBookings) Confirm(_ context.Context, cmd booking.TransitionCommand) (*booking.Booking, error) {
	return s.transition(cmd, booking.StatusConfirmed)
}

func (s *stubBookings) Reject(_ context.Context, cmd booking.TransitionCommand) (*booking.Booking, error) {
	return s.transition(cmd, booking.StatusRejected)
}

func (s *stubBookings) Complete(_ context.Context, cmd booking.TransitionCommand) (*booking.Booking, error) {
	return s.transition(cmd, booking.StatusCompleted)
}

func (s *stubBookings) Cancel(_ context.Context, cmd booking.TransitionCommand) (*booking.Booking, error) {
	return s.transition(cmd, booking.StatusCancelled)
}

func (s *stubBookings) ListForVendor(context.Context, types.ID, booking.Status) ([]booking.Booking, error) {
	return nil, nil
}

func (s *stubBookings) ListForCustomer(context.Context, types.ID) ([]booking.Booking, error) {
	return nil, nil
}

type stubVendors struct {
	nearbyRadius float64
}

func (s *stubVendors) List(context.Context) ([]vendor.Vendor, error) {
	return []vendor.Vendor{{ID: "v1", Name: "Ahmed Rentals"}}, nil
}

func (s *stubVendors) Get(_ context.Context, id types.ID) (*vendor.Vendor, error) {
	if id != "v1" {
		return nil, vendor.ErrNotFound
	}
	return &vendor.Vendor{ID: "v1", Name: "Ahmed Rentals"}, nil
}

func (s *stubVendors) ListBranches(context.Context, types.ID) ([]vendor.Branch, error) {
	return nil, nil
}

func (s *stubVendors) CreateBranch(_ context.Context, cmd vendor.CreateBranchCommand) (*vendor.Branch, error) {
	return &vendor.Branch{ID: "br1", VendorID: cmd.VendorID, Name: cmd.Name, Position: cmd.Position}, nil
}

func (s *stubVendors) NearbyBranches(_ context.Context, _ types.Point, radiusKm float64) ([]vendor.NearbyBranch, error) {
	s.nearbyRadius = radiusKm
	return nil, nil
}

type stubAI struct {
	err error
}

func (s *stubAI) Search(_ context.Context, _, _ string, _ map[string]string) (*ai.SearchIntent, error) {
	if s.err != nil {
		return nil, s.err
	}
	f := filter.Parse("type=SUV&maxPrice=800")
	return &ai.SearchIntent{Filters: f, Query: filter.Serialize(f).Encode(), Reply: "SUVs under 800"}, nil
}

func (s *stubAI) Remaining(context.Context, string) (int, error) {
	return 41, nil
}

func doRequest(r http.Handler, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// memRedis answers GET and SET from a map inside a go-redis hook, so the
// client never dials. Every SET key is recorded in order.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
	sets []string
}

func newMemRedis() (*redis.Client, *memRedis) {
	m := &memRedis{data: map[string]string{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(m)
	return client, m
}

func (m *memRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (m *memRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memRedis) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StatusCmd:
			if cmd.Name() == "set" && len(args) >= 3 {
				key := fmt.Sprint(args[1])
				m.data[key] = fmt.Sprint(args[2])
				m.sets = append(m.sets, key)
				c.SetVal("OK")
			}
		case *redis.StringCmd:
			if cmd.Name() == "get" && len(args) >= 2 {
				val, ok := m.data[fmt.Sprint(args[1])]
				if !ok {
					c.SetErr(redis.Nil)
					return redis.Nil
				}
				c.SetVal(val)
			}
		}
		return nil
	}
}

func (m *memRedis) setKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sets...)
}
