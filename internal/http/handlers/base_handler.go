// README: Base handler utilities (envelope helpers, error mapping).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/envelope"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/maps"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/aiusage"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/booking"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/car"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/vendor"
)

const dateLayout = "2006-01-02"

// isValidID accepts the UUIDs we generate and Firebase UIDs.
func isValidID(v string) bool {
	if v == "" || len(v) > 128 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON[T any](c *gin.Context, status int, v T) {
	c.JSON(status, envelope.Ok(v))
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope.Fail(msg))
}

// writeDomainError maps module errors to HTTP statuses.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrBadRequest), errors.Is(err, car.ErrBadRequest),
		errors.Is(err, booking.ErrBadRequest), errors.Is(err, vendor.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrNotFound), errors.Is(err, car.ErrNotFound),
		errors.Is(err, booking.ErrNotFound), errors.Is(err, vendor.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrForbidden), errors.Is(err, car.ErrForbidden),
		errors.Is(err, booking.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrCarUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, maps.ErrNoResults):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, aiusage.ErrInsufficientTokens):
		writeError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, aiusage.ErrAssistantUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// pathID reads and validates a path parameter, writing 400 when it is bad.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

// parseWhen accepts a plain date (midnight UTC) or an RFC 3339 timestamp.
func parseWhen(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
