package car

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
)

const dateLayout = "2006-01-02"

const selectCars = `
	SELECT c.id, c.vendor_id, v.name, c.name, c.type, c.fuel_type, c.transmission,
	       c.branch_name, c.location, c.seats, c.with_driver, COALESCE(c.image_url, ''),
	       COALESCE(c.daily_rate, 0), COALESCE(c.weekly_rate, 0), COALESCE(c.monthly_rate, 0),
	       c.currency, c.created_at
	FROM cars c
	JOIN vendors v ON v.id = c.vendor_id`

// searchQuery turns filters into SQL. vendorID, when set, limits the
// search to one vendor's fleet.
func searchQuery(f filter.CarsFilters, vendorID string) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "c.active")
	if vendorID != "" {
		where = append(where, "c.vendor_id = "+arg(vendorID))
	}
	if len(f.VendorNames) > 0 {
		where = append(where, "v.name = ANY("+arg(f.VendorNames)+")")
	}
	if len(f.Types) > 0 {
		where = append(where, "c.type = ANY("+arg(f.Types)+")")
	}
	if len(f.FuelTypes) > 0 {
		where = append(where, "c.fuel_type = ANY("+arg(f.FuelTypes)+")")
	}
	if len(f.Branches) > 0 {
		where = append(where, "c.branch_name = ANY("+arg(f.Branches)+")")
	}
	if len(f.Transmissions) > 0 {
		where = append(where, "c.transmission = ANY("+arg(f.Transmissions)+")")
	}
	if f.PriceRange != nil {
		where = append(where, "c.daily_rate BETWEEN "+arg(f.PriceRange.Min)+" AND "+arg(f.PriceRange.Max))
	}
	if f.PickupLocation != "" {
		where = append(where, "c.location ILIKE "+arg("%"+f.PickupLocation+"%"))
	}
	if f.DropOffLocation != "" {
		where = append(where, "(c.one_way_allowed OR c.location ILIKE "+arg("%"+f.DropOffLocation+"%")+")")
	}
	if f.WithDriver != nil {
		where = append(where, "c.with_driver = "+arg(*f.WithDriver))
	}
	if from, to, ok := dateWindow(f); ok {
		where = append(where, `NOT EXISTS (
		SELECT 1 FROM bookings b
		WHERE b.car_id = c.id
		  AND b.status IN ('pending','confirmed')
		  AND b.pickup_at < `+arg(to)+`
		  AND b.dropoff_at > `+arg(from)+`)`)
	}

	sql := selectCars + "\n\tWHERE " + strings.Join(where, "\n\t  AND ") + "\n\tORDER BY c.daily_rate, c.name"
	return sql, args
}

// dateWindow parses the search dates. Both must be valid and ordered,
// otherwise availability is not filtered.
func dateWindow(f filter.CarsFilters) (time.Time, time.Time, bool) {
	if f.PickupDate == "" || f.DropoffDate == "" {
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(dateLayout, f.PickupDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, f.DropoffDate)
	if err != nil || !to.After(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
