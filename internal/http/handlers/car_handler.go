// README: Car browsing, filtered search with URL state, and vendor fleet endpoints.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/http/middleware"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/car"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

// SessionHeader identifies an anonymous browser for search history.
const SessionHeader = "X-Session-ID"

type CarHandler struct {
	cars       CarService
	redis      *redis.Client
	searchPath string
	historyTTL time.Duration
}

// NewCarHandler builds the handler. redis may be nil; search history is
// then not persisted.
func NewCarHandler(cars CarService, redis *redis.Client, searchPath string, historyTTL time.Duration) *CarHandler {
	if searchPath == "" {
		searchPath = "/cars"
	}
	return &CarHandler{cars: cars, redis: redis, searchPath: searchPath, historyTTL: historyTTL}
}

type searchResp struct {
	Cars    []car.Car          `json:"cars"`
	Count   int                `json:"count"`
	URL     string             `json:"url"`
	Filters filter.CarsFilters `json:"filters"`
}

// Search handles GET /api/cars. The raw query uses the same vocabulary as
// the browser URL; the canonical URL is written to the caller's history.
func (h *CarHandler) Search(c *gin.Context) {
	f := filter.Parse(c.Request.URL.RawQuery)
	vendorID := strings.TrimSpace(c.Query(filter.KeyVendorID))
	if vendorID != "" && !isValidID(vendorID) {
		writeError(c, http.StatusBadRequest, "invalid vendor id")
		return
	}

	cars, err := h.cars.Search(c.Request.Context(), f, vendorID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	hist := h.history(c)
	filter.UpdateURL(c.Request.Context(), hist, f, vendorID)

	writeJSON(c, http.StatusOK, searchResp{
		Cars:    cars,
		Count:   len(cars),
		URL:     hist.Location(),
		Filters: f,
	})
}

type lastSearchResp struct {
	URL     string             `json:"url"`
	Filters filter.CarsFilters `json:"filters"`
}

// LastSearch handles GET /api/searches/last for signed-in users and for
// anonymous sessions that send the session header.
func (h *CarHandler) LastSearch(c *gin.Context) {
	url, err := h.history(c).Load(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	var rawQuery string
	if _, q, ok := strings.Cut(url, "?"); ok {
		rawQuery = q
	}
	writeJSON(c, http.StatusOK, lastSearchResp{URL: url, Filters: filter.Parse(rawQuery)})
}

type canonicalResp struct {
	Query   string             `json:"query"`
	URL     string             `json:"url"`
	Filters filter.CarsFilters `json:"filters"`
}

// Canonical handles GET /api/filters/canonical: it echoes the query back in
// canonical form without searching.
func (h *CarHandler) Canonical(c *gin.Context) {
	f := filter.Parse(c.Request.URL.RawQuery)
	q := filter.Serialize(f)
	if id := strings.TrimSpace(c.Query(filter.KeyVendorID)); id != "" {
		q.Set(filter.KeyVendorID, id)
	}
	writeJSON(c, http.StatusOK, canonicalResp{
		Query:   q.Encode(),
		URL:     filter.BuildURL(h.searchPath, q),
		Filters: f,
	})
}

func (h *CarHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	found, err := h.cars.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, found)
}

type createCarReq struct {
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	FuelType     string        `json:"fuelType"`
	Transmission string        `json:"transmission"`
	Branch       string        `json:"branch"`
	Location     string        `json:"location"`
	Seats        int           `json:"seats"`
	WithDriver   bool          `json:"withDriver"`
	ImageURL     string        `json:"imageUrl"`
	Rates        pricing.Rates `json:"rates"`
	Currency     string        `json:"currency"`
}

// Create handles POST /api/vendor/cars.
func (h *CarHandler) Create(c *gin.Context) {
	var req createCarReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := h.cars.Create(c.Request.Context(), car.CreateCommand{
		VendorID:     types.ID(middleware.CallerVendorID(c)),
		Name:         req.Name,
		Type:         req.Type,
		FuelType:     req.FuelType,
		Transmission: req.Transmission,
		Branch:       req.Branch,
		Location:     req.Location,
		Seats:        req.Seats,
		WithDriver:   req.WithDriver,
		ImageURL:     req.ImageURL,
		Rates:        req.Rates,
		Currency:     req.Currency,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, created)
}

// UpdateRates handles PUT /api/vendor/cars/:id/rates.
func (h *CarHandler) UpdateRates(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var rates pricing.Rates
	if err := c.ShouldBindJSON(&rates); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	vendorID := types.ID(middleware.CallerVendorID(c))
	if err := h.cars.UpdateRates(c.Request.Context(), vendorID, types.ID(id), rates); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, rates)
}

// history returns the search history of the caller. A signed-in caller
// always gets the UID entry and the session header is ignored; anonymous
// callers are keyed by the header in their own namespace.
func (h *CarHandler) history(c *gin.Context) *filter.RedisHistory {
	if uid := middleware.CallerUID(c); uid != "" {
		return filter.UserHistory(h.redis, uid, h.searchPath, h.historyTTL)
	}
	session := strings.TrimSpace(c.GetHeader(SessionHeader))
	if !isValidID(session) {
		return filter.NoHistory(h.searchPath)
	}
	return filter.AnonymousHistory(h.redis, session, h.searchPath, h.historyTTL)
}
