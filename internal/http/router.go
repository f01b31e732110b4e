package http

import (
	"time"

	"github.com/adstudio/backend/internal/config"
	"github.com/adstudio/backend/internal/http/handlers"
	"github.com/adstudio/backend/internal/middleware"
	"github.com/adstudio/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Brands    *handlers.BrandHandler
	Campaigns *handlers.CampaignHandler
	Ads       *handlers.AdHandler
	Costs     *handlers.CostHandler
}

// NewApp returns a fiber app with the JSON error handler installed.
func NewApp(log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "adstudio",
		ErrorHandler: handlers.ErrorHandler(log),
		ReadTimeout:  30 * time.Second,
		// single-ad generation runs inline
		WriteTimeout: 5 * time.Minute,
	})
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	h Handlers,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Meta (public)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/platforms", metaHandler.GetPlatforms)
	api.Get("/meta/styles", metaHandler.GetStyles)

	protected := api.Group("", middleware.AuthMiddleware(cfg, log))
	limited := middleware.RateLimitMiddleware(rdb, cfg.HTTP.RateLimitPerMinute, time.Minute)
	read := middleware.RequirePermission(cfg, rbac.PermRead)
	edit := middleware.RequirePermission(cfg, rbac.PermEdit)
	generate := middleware.RequirePermission(cfg, rbac.PermGenerate)
	del := middleware.RequirePermission(cfg, rbac.PermDelete)

	// Brands
	protected.Post("/brands/analyze", generate, limited, h.Brands.AnalyzeBrand)
	protected.Post("/brands", edit, h.Brands.CreateBrand)
	protected.Get("/brands", read, h.Brands.ListBrands)
	protected.Get("/brands/:id", read, h.Brands.GetBrand)
	protected.Put("/brands/:id", edit, h.Brands.UpdateBrand)
	protected.Delete("/brands/:id", del, h.Brands.DeleteBrand)

	// Campaigns
	protected.Post("/campaigns", edit, h.Campaigns.CreateCampaign)
	protected.Get("/campaigns", read, h.Campaigns.ListCampaigns)
	protected.Get("/campaigns/:id", read, h.Campaigns.GetCampaign)
	protected.Put("/campaigns/:id", edit, h.Campaigns.UpdateCampaign)
	protected.Delete("/campaigns/:id", del, h.Campaigns.DeleteCampaign)
	protected.Post("/campaigns/:id/status", edit, h.Campaigns.SetStatus)
	protected.Post("/campaigns/:id/generate", generate, limited, h.Campaigns.Generate)
	protected.Get("/campaigns/:id/ads", read, h.Campaigns.ListAds)
	protected.Get("/campaigns/:id/costs", read, h.Campaigns.GetCosts)
	protected.Get("/campaigns/:id/history", read, h.Campaigns.GetHistory)

	// Ads
	protected.Post("/ads/generate", generate, limited, h.Ads.GenerateAd)
	protected.Get("/ads", read, h.Ads.ListAds)
	protected.Get("/ads/:id", read, h.Ads.GetAd)
	protected.Delete("/ads/:id", del, h.Ads.DeleteAd)
	protected.Post("/ads/:id/remove-background", generate, limited, h.Ads.RemoveBackground)
	protected.Post("/ads/:id/recalculate-cost", edit, h.Ads.RecalculateCost)
	protected.Post("/ads/:id/detach", edit, h.Ads.Detach)
	protected.Get("/ads/:id/exports", read, h.Ads.ListExports)
	protected.Get("/ads/:id/costs", read, h.Ads.GetCosts)

	// Costs
	protected.Get("/costs/summary", read, h.Costs.Summary)
	protected.Get("/costs/pricing", read, h.Costs.Pricing)
}
