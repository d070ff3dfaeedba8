// README: Vendor directory, branches and nearby-branch search.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/http/middleware"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/vendor"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/types"
)

type VendorHandler struct {
	vendors VendorService
}

func NewVendorHandler(svc VendorService) *VendorHandler {
	return &VendorHandler{vendors: svc}
}

func (h *VendorHandler) List(c *gin.Context) {
	list, err := h.vendors.List(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(list))
}

func (h *VendorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.vendors.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *VendorHandler) ListBranches(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.vendors.ListBranches(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(list))
}

// Nearby handles GET /api/branches/nearby?lat=&lng=&radiusKm=.
func (h *VendorHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	var radius float64
	if raw := c.Query("radiusKm"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid radiusKm")
			return
		}
		radius = r
	}
	list, err := h.vendors.NearbyBranches(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(list))
}

type createBranchReq struct {
	Name     string       `json:"name"`
	Address  string       `json:"address"`
	City     string       `json:"city"`
	Position *types.Point `json:"position"`
}

// CreateBranch handles POST /api/vendor/branches. Without a position the
// address is geocoded.
func (h *VendorHandler) CreateBranch(c *gin.Context) {
	var req createBranchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := vendor.CreateBranchCommand{
		VendorID: types.ID(middleware.CallerVendorID(c)),
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
	}
	if req.Position != nil {
		cmd.Position = *req.Position
	}
	b, err := h.vendors.CreateBranch(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}
