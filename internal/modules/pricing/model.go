// README: Rate tables, add-on services and price breakdowns for car rentals.
package pricing

import "github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"

type RentalPeriod string

const (
	PeriodDaily   RentalPeriod = "daily"
	PeriodWeekly  RentalPeriod = "weekly"
	PeriodMonthly RentalPeriod = "monthly"
)

func (p RentalPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Rates is a car's price table, one price per unit of each period.
type Rates struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

// For returns the price for period p; unknown periods and unusable
// values price at 0.
func (r Rates) For(p RentalPeriod) float64 {
	switch p {
	case PeriodDaily:
		return types.NonNegative(r.Daily)
	case PeriodWeekly:
		return types.NonNegative(r.Weekly)
	case PeriodMonthly:
		return types.NonNegative(r.Monthly)
	}
	return 0
}

// AddOnService is an optional flat-priced extra (insurance, GPS, driver,
// delivery). Only Selected services count toward a booking.
type AddOnService struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Selected bool    `json:"selected"`
}

// Breakdown is derived on every request and never stored on its own.
type Breakdown struct {
	BasePrice     float64 `json:"basePrice"`
	ServicesPrice float64 `json:"servicesPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

type Quote struct {
	CarID      types.ID       `json:"carId"`
	RentalDays int            `json:"rentalDays"`
	Period     RentalPeriod   `json:"period"`
	Rates      Rates          `json:"rates"`
	Services   []AddOnService `json:"services"`
	Breakdown  Breakdown      `json:"breakdown"`
	Currency   string         `json:"currency"`
}

// RateCard is what the store holds for one car.
type RateCard struct {
	CarID    types.ID
	VendorID types.ID
	Rates    Rates
	Currency string
}
