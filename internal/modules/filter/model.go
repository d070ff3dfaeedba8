// README: Car search filters shared by the URL codec, car search and the AI search assistant.
package filter

// Price bounds that mean "no price filter".
const (
	DefaultMinPrice = 0.0
	DefaultMaxPrice = 2000.0
)

// Query-string vocabulary.
const (
	KeyVendor          = "vendor"
	KeyType            = "type"
	KeyFuelType        = "fuelType"
	KeyBranch          = "branch"
	KeyTransmission    = "transmission"
	KeyMinPrice        = "minPrice"
	KeyMaxPrice        = "maxPrice"
	KeyPickupLocation  = "pickupLocation"
	KeyDropOffLocation = "dropOffLocation"
	KeyPickupDate      = "pickupDate"
	KeyDropoffDate     = "dropoffDate"
	KeyWithDriver      = "withDriver"
	// KeyVendorID scopes a search link to one vendor's page.
	KeyVendorID = "id"
)

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// IsDefault reports whether the range filters nothing.
func (r PriceRange) IsDefault() bool {
	return r.Min == DefaultMinPrice && r.Max == DefaultMaxPrice
}

// CarsFilters is the structured form of a car search. Every field is
// optional: empty slices, empty strings and nil pointers mean "not set".
type CarsFilters struct {
	VendorNames     []string    `json:"vendorNames,omitempty"`
	Types           []string    `json:"types,omitempty"`
	FuelTypes       []string    `json:"fuelTypes,omitempty"`
	Branches        []string    `json:"branches,omitempty"`
	Transmissions   []string    `json:"transmissions,omitempty"`
	PriceRange      *PriceRange `json:"priceRange,omitempty"`
	PickupLocation  string      `json:"pickupLocation,omitempty"`
	DropOffLocation string      `json:"dropOffLocation,omitempty"`
	PickupDate      string      `json:"pickupDate,omitempty"`
	DropoffDate     string      `json:"dropoffDate,omitempty"`
	// WithDriver is tri-state: nil means the link did not mention it.
	WithDriver *bool `json:"withDriver,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f CarsFilters) IsEmpty() bool {
	return len(Serialize(f)) == 0
}

// Bool returns a pointer to v, for building WithDriver values.
func Bool(v bool) *bool {
	return &v
}
