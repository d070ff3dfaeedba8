package ai

import (
	"strings"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
)

// SearchIntent is what the assistant understood, already normalised by the
// filter codec so it can be used as a /cars query directly.
type SearchIntent struct {
	Filters filter.CarsFilters `json:"filters"`

	// Query is the canonical query string for Filters (no leading "?").
	Query string `json:"query"`

	// NeedsClarification is set when the model could not extract anything
	// useful and Reply asks the user a follow-up question.
	NeedsClarification bool `json:"needsClarification"`

	// Reply is a short user-facing sentence.
	Reply string `json:"reply"`
}

// searchResponse mirrors the JSON schema the model is asked to produce.
type searchResponse struct {
	VendorNames     []string `json:"vendorNames"`
	Types           []string `json:"types"`
	FuelTypes       []string `json:"fuelTypes"`
	Branches        []string `json:"branches"`
	Transmissions   []string `json:"transmissions"`
	MinPrice        *float64 `json:"minPrice"`
	MaxPrice        *float64 `json:"maxPrice"`
	PickupLocation  string   `json:"pickupLocation"`
	DropOffLocation string   `json:"dropOffLocation"`
	PickupDate      string   `json:"pickupDate"`
	DropoffDate     string   `json:"dropoffDate"`
	WithDriver      *bool    `json:"withDriver"`
	Clarification   bool     `json:"clarification"`
	Reply           string   `json:"reply"`
}

// toIntent maps the model output onto CarsFilters and round-trips it through
// the codec, so defaults, blanks and malformed prices disappear exactly as
// they would for a hand-written URL.
func (r searchResponse) toIntent() *SearchIntent {
	f := filter.CarsFilters{
		VendorNames:     r.VendorNames,
		Types:           r.Types,
		FuelTypes:       r.FuelTypes,
		Branches:        r.Branches,
		Transmissions:   r.Transmissions,
		PickupLocation:  strings.TrimSpace(r.PickupLocation),
		DropOffLocation: strings.TrimSpace(r.DropOffLocation),
		PickupDate:      strings.TrimSpace(r.PickupDate),
		DropoffDate:     strings.TrimSpace(r.DropoffDate),
		WithDriver:      r.WithDriver,
	}
	if r.MinPrice != nil || r.MaxPrice != nil {
		pr := filter.PriceRange{Min: filter.DefaultMinPrice, Max: filter.DefaultMaxPrice}
		if r.MinPrice != nil {
			pr.Min = *r.MinPrice
		}
		if r.MaxPrice != nil {
			pr.Max = *r.MaxPrice
		}
		f.PriceRange = &pr
	}

	canonical := filter.Canonical(f)
	return &SearchIntent{
		Filters:            canonical,
		Query:              filter.Serialize(canonical).Encode(),
		NeedsClarification: r.Clarification || canonical.IsEmpty(),
		Reply:              strings.TrimSpace(r.Reply),
	}
}
