// README: Car listing as shown in search results and vendor back-office.
package car

import (
	"time"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

type Car struct {
	ID           types.ID      `json:"id"`
	VendorID     types.ID      `json:"vendorId"`
	VendorName   string        `json:"vendorName"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	FuelType     string        `json:"fuelType"`
	Transmission string        `json:"transmission"`
	Branch       string        `json:"branch"`
	Location     string        `json:"location"`
	Seats        int           `json:"seats"`
	WithDriver   bool          `json:"withDriver"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	Rates        pricing.Rates `json:"rates"`
	Currency     string        `json:"currency"`
	CreatedAt    time.Time     `json:"createdAt"`
}
