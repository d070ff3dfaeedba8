// README: Bidirectional mapping between CarsFilters and the search query string.
package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// listKeys pairs each comma-separated key with the field it fills, in
// serialization order.
var listKeys = []struct {
	key   string
	field func(*CarsFilters) *[]string
}{
	{KeyVendor, func(f *CarsFilters) *[]string { return &f.VendorNames }},
	{KeyType, func(f *CarsFilters) *[]string { return &f.Types }},
	{KeyFuelType, func(f *CarsFilters) *[]string { return &f.FuelTypes }},
	{KeyBranch, func(f *CarsFilters) *[]string { return &f.Branches }},
	{KeyTransmission, func(f *CarsFilters) *[]string { return &f.Transmissions }},
}

var stringKeys = []struct {
	key   string
	field func(*CarsFilters) *string
}{
	{KeyPickupLocation, func(f *CarsFilters) *string { return &f.PickupLocation }},
	{KeyDropOffLocation, func(f *CarsFilters) *string { return &f.DropOffLocation }},
	{KeyPickupDate, func(f *CarsFilters) *string { return &f.PickupDate }},
	{KeyDropoffDate, func(f *CarsFilters) *string { return &f.DropoffDate }},
}

// Parse reads the recognized keys of a query string (with or without the
// leading "?") into a CarsFilters. Unknown keys are ignored and nothing
// here fails: malformed escapes and unparseable numbers are skipped.
func Parse(rawQuery string) CarsFilters {
	// ParseQuery rejects pairs holding a raw ';' but the browser keeps it as
	// a literal. It returns every pair it could decode alongside the first
	// error.
	raw := strings.ReplaceAll(strings.TrimPrefix(rawQuery, "?"), ";", "%3B")
	values, _ := url.ParseQuery(raw)
	return ParseValues(values)
}

// ParseValues is Parse for an already decoded query, e.g. gin's
// c.Request.URL.Query().
func ParseValues(values url.Values) CarsFilters {
	var f CarsFilters

	for _, lk := range listKeys {
		if tokens := splitList(values.Get(lk.key)); len(tokens) > 0 {
			*lk.field(&f) = tokens
		}
	}

	if values.Has(KeyMinPrice) || values.Has(KeyMaxPrice) {
		r := PriceRange{
			Min: parsePrice(values, KeyMinPrice, DefaultMinPrice),
			Max: parsePrice(values, KeyMaxPrice, DefaultMaxPrice),
		}
		if !r.IsDefault() {
			f.PriceRange = &r
		}
	}

	for _, sk := range stringKeys {
		if v := values.Get(sk.key); v != "" {
			*sk.field(&f) = v
		}
	}

	if values.Has(KeyWithDriver) {
		f.WithDriver = Bool(strings.EqualFold(values.Get(KeyWithDriver), "true"))
	}
	return f
}

// Serialize renders f as a query in canonical key order, leaving out
// everything that equals its default.
func Serialize(f CarsFilters) Query {
	var q Query

	for _, lk := range listKeys {
		if list := *lk.field(&f); len(list) > 0 {
			q.Set(lk.key, strings.Join(list, ","))
		}
	}

	// Each bound is emitted only when it narrows the default.
	if f.PriceRange != nil {
		if f.PriceRange.Min > DefaultMinPrice {
			q.Set(KeyMinPrice, formatPrice(f.PriceRange.Min))
		}
		if f.PriceRange.Max < DefaultMaxPrice {
			q.Set(KeyMaxPrice, formatPrice(f.PriceRange.Max))
		}
	}

	for _, sk := range stringKeys {
		if v := *sk.field(&f); v != "" {
			q.Set(sk.key, v)
		}
	}

	if f.WithDriver != nil {
		q.Set(KeyWithDriver, strconv.FormatBool(*f.WithDriver))
	}
	return q
}

// Canonical drops defaults and blank tokens by running f through the codec.
func Canonical(f CarsFilters) CarsFilters {
	return Parse(Serialize(f).Encode())
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// parsePrice treats an absent or unparseable bound (NaN and Inf included)
// as the default for that bound.
func parsePrice(values url.Values, key string, def float64) float64 {
	if !values.Has(key) {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(values.Get(key)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
