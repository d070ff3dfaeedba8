// README: Booking handlers for customers (create/get/list/cancel) and vendors (inbox and transitions).
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/http/middleware"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/infra"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/booking"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

type BookingHandler struct {
	bookings BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	CarID           string   `json:"carId"`
	PickupDate      string   `json:"pickupDate"`
	DropoffDate     string   `json:"dropoffDate"`
	PickupLocation  string   `json:"pickupLocation"`
	DropOffLocation string   `json:"dropOffLocation"`
	WithDriver      bool     `json:"withDriver"`
	Period          string   `json:"period"`
	ServiceIDs      []string `json:"serviceIds"`
}

type transitionReq struct {
	Reason string `json:"reason"`
}

// Create handles POST /api/bookings. The customer is always the caller.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.CarID) {
		writeError(c, http.StatusBadRequest, "invalid carId")
		return
	}
	pickup, ok1 := parseWhen(req.PickupDate)
	dropoff, ok2 := parseWhen(req.DropoffDate)
	if !ok1 || !ok2 {
		writeError(c, http.StatusBadRequest, "invalid dates")
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		CustomerID:      types.ID(middleware.CallerUID(c)),
		CarID:           types.ID(req.CarID),
		PickupDate:      pickup,
		DropoffDate:     dropoff,
		PickupLocation:  req.PickupLocation,
		DropOffLocation: req.DropOffLocation,
		WithDriver:      req.WithDriver,
		Period:          pricing.RentalPeriod(req.Period),
		ServiceIDs:      req.ServiceIDs,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

// Get handles GET /api/bookings/:id for the customer or the vendor of the booking.
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), types.ID(id), callerActor(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// ListMine handles GET /api/me/bookings.
func (h *BookingHandler) ListMine(c *gin.Context) {
	list, err := h.bookings.ListForCustomer(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(list))
}

// Cancel handles POST /api/bookings/:id/cancel (customer).
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, actorFor(c, booking.ActorCustomer), h.bookings.Cancel)
}

// ListForVendor handles GET /api/vendor/bookings?status=.
func (h *BookingHandler) ListForVendor(c *gin.Context) {
	list, err := h.bookings.ListForVendor(c.Request.Context(),
		types.ID(middleware.CallerVendorID(c)), booking.Status(c.Query("status")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(list))
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, actorFor(c, booking.ActorVendor), h.bookings.Confirm)
}

func (h *BookingHandler) Reject(c *gin.Context) {
	h.transition(c, actorFor(c, booking.ActorVendor), h.bookings.Reject)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, actorFor(c, booking.ActorVendor), h.bookings.Complete)
}

// VendorCancel handles POST /api/vendor/bookings/:id/cancel.
func (h *BookingHandler) VendorCancel(c *gin.Context) {
	h.transition(c, actorFor(c, booking.ActorVendor), h.bookings.Cancel)
}

type transitionFunc func(ctx context.Context, cmd booking.TransitionCommand) (*booking.Booking, error)

func (h *BookingHandler) transition(c *gin.Context, actor booking.Actor, do transitionFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	// The reason body is optional.
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := do(c.Request.Context(), booking.TransitionCommand{
		BookingID: types.ID(id),
		Actor:     actor,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// actorFor builds the booking actor for the caller acting as actorType.
func actorFor(c *gin.Context, actorType string) booking.Actor {
	if actorType == booking.ActorVendor {
		return booking.Actor{Type: booking.ActorVendor, ID: types.ID(middleware.CallerVendorID(c))}
	}
	return booking.Actor{Type: booking.ActorCustomer, ID: types.ID(middleware.CallerUID(c))}
}

// callerActor picks vendor or customer from the caller's role.
func callerActor(c *gin.Context) booking.Actor {
	if middleware.CallerRole(c) == infra.RoleVendor {
		return actorFor(c, booking.ActorVendor)
	}
	return actorFor(c, booking.ActorCustomer)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
