// README: Price quotes and vendor add-on services.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/http/middleware"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

type PricingHandler struct {
	pricing PricingService
}

func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type quoteReq struct {
	CarID       string   `json:"carId"`
	RentalDays  int      `json:"rentalDays"`
	PickupDate  string   `json:"pickupDate"`
	DropoffDate string   `json:"dropoffDate"`
	Period      string   `json:"period"`
	ServiceIDs  []string `json:"serviceIds"`
}

// Quote handles POST /api/pricing/quote. The day count comes from
// rentalDays, or from the dates when rentalDays is missing, and is never
// less than 1.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.CarID) {
		writeError(c, http.StatusBadRequest, "invalid carId")
		return
	}

	days := req.RentalDays
	if days < 1 && req.PickupDate != "" && req.DropoffDate != "" {
		pickup, ok1 := parseWhen(req.PickupDate)
		dropoff, ok2 := parseWhen(req.DropoffDate)
		if !ok1 || !ok2 {
			writeError(c, http.StatusBadRequest, "invalid dates")
			return
		}
		days = pricing.RentalDays(pickup, dropoff)
	}
	if days < 1 {
		days = 1
	}

	quote, err := h.pricing.Quote(c.Request.Context(), pricing.QuoteCommand{
		CarID:      types.ID(req.CarID),
		RentalDays: days,
		Period:     pricing.RentalPeriod(req.Period),
		ServiceIDs: req.ServiceIDs,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, quote)
}

// ListServices handles GET /api/cars/:id/services.
func (h *PricingHandler) ListServices(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	services, err := h.pricing.ListServices(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if services == nil {
		services = []pricing.AddOnService{}
	}
	writeJSON(c, http.StatusOK, services)
}

type addServiceReq struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// AddService handles POST /api/vendor/cars/:id/services.
func (h *PricingHandler) AddService(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addServiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	svc, err := h.pricing.AddService(c.Request.Context(), pricing.AddServiceCommand{
		VendorID: types.ID(middleware.CallerVendorID(c)),
		CarID:    types.ID(id),
		Service:  pricing.AddOnService{ID: req.ID, Name: req.Name, Price: req.Price},
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, svc)
}
