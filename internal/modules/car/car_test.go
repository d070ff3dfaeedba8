package car

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

func TestSearchQuery_NoFilters(t *testing.T) {
	sql, args := searchQuery(filter.CarsFilters{}, "")
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
	if !strings.Contains(sql, "WHERE c.active") {
		t.Errorf("sql missing active guard:\n%s", sql)
	}
	if strings.Contains(sql, "NOT EXISTS") {
		t.Errorf("sql should not filter availability without dates:\n%s", sql)
	}
}

func TestSearchQuery_AllFilters(t *testing.T) {
	f := filter.CarsFilters{
		VendorNames:     []string{"ahmed", "GETCAR"},
		Types:           []string{"SUV"},
		FuelTypes:       []string{"diesel"},
		Branches:        []string{"Zamalek"},
		Transmissions:   []string{"automatic"},
		PriceRange:      &filter.PriceRange{Min: 100, Max: 500},
		PickupLocation:  "Cairo",
		DropOffLocation: "Giza",
		PickupDate:      "2026-11-01",
		DropoffDate:     "2026-11-04",
		WithDriver:      filter.Bool(true),
	}
	sql, args := searchQuery(f, "v1")

	for _, frag := range []string{
		"c.vendor_id = $1",
		"v.name = ANY($2)",
		"c.type = ANY($3)",
		"c.fuel_type = ANY($4)",
		"c.branch_name = ANY($5)",
		"c.transmission = ANY($6)",
		"c.daily_rate BETWEEN $7 AND $8",
		"c.location ILIKE $9",
		"(c.one_way_allowed OR c.location ILIKE $10)",
		"c.with_driver = $11",
		"b.pickup_at < $12",
		"b.dropoff_at > $13",
	} {
		if !strings.Contains(sql, frag) {
			t.Errorf("sql missing %q:\n%s", frag, sql)
		}
	}
	if len(args) != 13 {
		t.Fatalf("len(args) = %d, want 13", len(args))
	}
	if args[8] != "%Cairo%" {
		t.Errorf("pickup pattern = %v", args[8])
	}
	if args[10] != true {
		t.Errorf("withDriver arg = %v", args[10])
	}
}

func TestSearchQuery_WithDriverFalseStillFilters(t *testing.T) {
	sql, args := searchQuery(filter.CarsFilters{WithDriver: filter.Bool(false)}, "")
	if !strings.Contains(sql, "c.with_driver = $1") || args[0] != false {
		t.Errorf("expected with_driver=false filter, got %s %v", sql, args)
	}
}

func TestDateWindow(t *testing.T) {
	cases := []struct {
		pickup, dropoff string
		ok              bool
	}{
		{"2026-11-01", "2026-11-04", true},
		{"2026-11-04", "2026-11-01", false},
		{"2026-11-01", "2026-11-01", false},
		{"tomorrow", "2026-11-04", false},
		{"2026-11-01", "", false},
	}
	for _, tc := range cases {
		_, _, ok := dateWindow(filter.CarsFilters{PickupDate: tc.pickup, DropoffDate: tc.dropoff})
		if ok != tc.ok {
			t.Errorf("dateWindow(%q, %q) ok = %v, want %v", tc.pickup, tc.dropoff, ok, tc.ok)
		}
	}
}

func TestSearchCacheKey_Canonical(t *testing.T) {
	a := searchCacheKey(filter.CarsFilters{Types: []string{"SUV"}, PriceRange: &filter.PriceRange{Min: 0, Max: 2000}}, "")
	b := searchCacheKey(filter.Parse("type=SUV"), "")
	if a != b {
		t.Errorf("cache keys differ: %q vs %q", a, b)
	}
	if c := searchCacheKey(filter.Parse("type=SUV"), "v1"); c == a {
		t.Error("vendor scope must change the cache key")
	}
}

type fakeFinder struct {
	cars     map[types.ID]*Car
	searched int
}

func (f *fakeFinder) Search(_ context.Context, _ filter.CarsFilters, _ string) ([]Car, error) {
	f.searched++
	var out []Car
	for _, c := range f.cars {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeFinder) Get(_ context.Context, id types.ID) (*Car, error) {
	c, ok := f.cars[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeFinder) Create(_ context.Context, c *Car) error {
	f.cars[c.ID] = c
	return nil
}

func (f *fakeFinder) UpdateRates(_ context.Context, vendorID, carID types.ID, r pricing.Rates) (bool, error) {
	c, ok := f.cars[carID]
	if !ok || c.VendorID != vendorID {
		return false, nil
	}
	c.Rates = r
	return true, nil
}

func TestService_SearchWithoutCache(t *testing.T) {
	store := &fakeFinder{cars: map[types.ID]*Car{"c1": {ID: "c1", Name: "Tucson"}}}
	s := NewService(store, nil, 0)
	cars, err := s.Search(context.Background(), filter.CarsFilters{}, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cars) != 1 || store.searched != 1 {
		t.Errorf("got %d cars after %d searches", len(cars), store.searched)
	}
}

func TestService_CreateAndUpdateRates(t *testing.T) {
	store := &fakeFinder{cars: map[types.ID]*Car{}}
	s := NewService(store, nil, 0)
	ctx := context.Background()

	if _, err := s.Create(ctx, CreateCommand{VendorID: "v1", Name: "Elantra"}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing type/rates error = %v, want ErrBadRequest", err)
	}

	c, err := s.Create(ctx, CreateCommand{VendorID: "v1", Name: " Elantra ", Type: "Sedan", Rates: pricing.Rates{Daily: 90}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Name != "Elantra" || c.Currency != types.DefaultCurrency {
		t.Errorf("created car = %+v", c)
	}

	if err := s.UpdateRates(ctx, "v1", c.ID, pricing.Rates{Daily: 95, Weekly: 600}); err != nil {
		t.Fatalf("UpdateRates() error = %v", err)
	}
	if store.cars[c.ID].Rates.Daily != 95 {
		t.Errorf("daily rate = %v, want 95", store.cars[c.ID].Rates.Daily)
	}
	if err := s.UpdateRates(ctx, "v2", c.ID, pricing.Rates{Daily: 1}); !errors.Is(err, ErrForbidden) {
		t.Errorf("other vendor error = %v, want ErrForbidden", err)
	}
	if err := s.UpdateRates(ctx, "v1", "missing", pricing.Rates{Daily: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing car error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateRates(ctx, "v1", c.ID, pricing.Rates{Daily: -1}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("negative rate error = %v, want ErrBadRequest", err)
	}
}
