package pricing

import (
	"math"
	"time"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

// Calculate prices a rental:
//
//	base     = rate(period) × rentalDays
//	services = sum of selected service prices
//	total    = base + services
//
// It never fails. Negative or non-finite inputs count as 0. rentalDays is
// not raised to 1 here; callers clamp it.
func Calculate(rentalDays int, rates Rates, period RentalPeriod, services []AddOnService) Breakdown {
	if rentalDays < 0 {
		rentalDays = 0
	}
	base := rates.For(period) * float64(rentalDays)

	var extras float64
	for _, s := range services {
		if s.Selected {
			extras += types.NonNegative(s.Price)
		}
	}
	return Breakdown{
		BasePrice:     base,
		ServicesPrice: extras,
		TotalPrice:    base + extras,
	}
}

// RentalDays counts whole days from pickup to dropoff, rounding partial
// days up, with a minimum of 1.
func RentalDays(pickup, dropoff time.Time) int {
	d := dropoff.Sub(pickup)
	if d <= 0 {
		return 1
	}
	days := int(math.Ceil(d.Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// Select marks the services whose IDs appear in ids and returns a copy.
func Select(catalog []AddOnService, ids []string) []AddOnService {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]AddOnService, len(catalog))
	for i, s := range catalog {
		s.Selected = want[s.ID]
		out[i] = s
	}
	return out
}
