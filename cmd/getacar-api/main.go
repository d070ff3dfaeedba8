// README: Entry point; loads config, wires services, starts HTTP server and the booking expiry monitor.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/ai"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/config"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/events"
	httptransport "github.com/ZaFrontEndMan/get-a-car-sub002/internal/http"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/infra"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/maps"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/aiusage"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/booking"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/car"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/vendor"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	configPath := os.Getenv("GETACAR_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(log, "config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Error("GETACAR_FIREBASE_PROJECT_ID is required")
		os.Exit(1)
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		fatal(log, "firebase init", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		fatal(log, "postgres", err)
	}
	defer dbPool.Close()
	if cfg.DB.Migrations != "" {
		if err := infra.ApplyMigrations(ctx, dbPool, cfg.DB.Migrations); err != nil {
			fatal(log, "migrations", err)
		}
	}

	redisClient, err := infra.NewRedis(ctx, cfg.Redis)
	if err != nil {
		fatal(log, "redis", err)
	}
	defer redisClient.Close()

	publisher, err := events.New(cfg.Events)
	if err != nil {
		fatal(log, "events", err)
	}
	defer publisher.Close()

	var geocoder vendor.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			fatal(log, "maps", err)
		}
		geocoder = g
	} else {
		log.Warn("maps api key not set; branches need explicit coordinates")
	}

	var assistant ai.SearchAssistant
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiAssistant(ctx, cfg.AI.GeminiKey)
		if err != nil {
			fatal(log, "gemini", err)
		}
		defer gemini.Close()
		assistant = gemini
	} else {
		log.Warn("gemini api key not set; ai search disabled")
	}

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool), pricing.RentalPeriod(cfg.Booking.DefaultPeriod))
	carSvc := car.NewService(car.NewStore(dbPool), redisClient, cfg.Search.CacheTTL)
	vendorSvc := vendor.NewService(vendor.NewStore(dbPool, redisClient), geocoder)
	bookingSvc := booking.NewService(booking.NewStore(dbPool), pricingSvc, publisher, cfg.Booking.PendingTTL)
	aiSvc := aiusage.NewService(aiusage.NewStore(dbPool), assistant)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Logger:   log,
		Verifier: verifier,
		Redis:    redisClient,
		Search:   cfg.Search,
		AI:       cfg.AI,
		Cars:     carSvc,
		Pricing:  pricingSvc,
		Bookings: bookingSvc,
		Vendors:  vendorSvc,
		AISearch: aiSvc,
	})

	go bookingSvc.RunExpiryMonitor(ctx, cfg.Booking.ExpiryTick)

	server := httptransport.NewServer(cfg.HTTP, router, log)
	if err := server.Run(ctx); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func fatal(log *slog.Logger, what string, err error) {
	log.Error(what+" failed", "error", err)
	os.Exit(1)
}
