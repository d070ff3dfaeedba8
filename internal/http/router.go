// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/config"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/envelope"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/http/handlers"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/http/middleware"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/infra"
)

type RouterDeps struct {
	Logger   *slog.Logger
	Verifier infra.TokenVerifier
	Redis    *redis.Client
	Search   config.SearchConfig
	AI       config.AIConfig

	Cars     handlers.CarService
	Pricing  handlers.PricingService
	Bookings handlers.BookingService
	Vendors  handlers.VendorService
	AISearch handlers.AISearchService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Metrics(), middleware.Logging(log))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope.Fail("not found"))
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, envelope.Ok("OK"))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	carHandler := handlers.NewCarHandler(deps.Cars, deps.Redis, deps.Search.Path, deps.Search.HistoryTTL)
	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	vendorHandler := handlers.NewVendorHandler(deps.Vendors)
	aiHandler := handlers.NewAIHandler(deps.AISearch, deps.Search.Path)

	api := r.Group("/api")

	// Public. Search identifies signed-in callers for their history.
	public := api.Group("", middleware.OptionalAuth(deps.Verifier))
	public.GET("/vendors", vendorHandler.List)
	public.GET("/vendors/:id", vendorHandler.Get)
	public.GET("/vendors/:id/branches", vendorHandler.ListBranches)
	public.GET("/branches/nearby", vendorHandler.Nearby)
	public.GET("/cars", carHandler.Search)
	public.GET("/cars/:id", carHandler.Get)
	public.GET("/cars/:id/services", pricingHandler.ListServices)
	public.POST("/pricing/quote", pricingHandler.Quote)
	public.GET("/filters/canonical", carHandler.Canonical)
	public.GET("/searches/last", carHandler.LastSearch)

	authed := api.Group("", middleware.Auth(deps.Verifier))
	authed.POST("/bookings", bookingHandler.Create)
	authed.GET("/bookings/:id", bookingHandler.Get)
	authed.GET("/me/bookings", bookingHandler.ListMine)
	authed.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	authed.POST("/ai/search", middleware.RateLimit(deps.AI.RatePerS, deps.AI.Burst), aiHandler.Search)

	vendorOnly := api.Group("/vendor", middleware.Auth(deps.Verifier), middleware.RequireRole(infra.RoleVendor))
	vendorOnly.POST("/cars", carHandler.Create)
	vendorOnly.PUT("/cars/:id/rates", carHandler.UpdateRates)
	vendorOnly.POST("/cars/:id/services", pricingHandler.AddService)
	vendorOnly.POST("/branches", vendorHandler.CreateBranch)
	vendorOnly.GET("/bookings", bookingHandler.ListForVendor)
	vendorOnly.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	vendorOnly.POST("/bookings/:id/reject", bookingHandler.Reject)
	vendorOnly.POST("/bookings/:id/complete", bookingHandler.Complete)
	vendorOnly.POST("/bookings/:id/cancel", bookingHandler.VendorCancel)

	return r
}
