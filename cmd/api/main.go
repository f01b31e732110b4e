package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adstudio/backend/internal/config"
	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/db"
	"github.com/adstudio/backend/internal/events"
	"github.com/adstudio/backend/internal/generation"
	apphttp "github.com/adstudio/backend/internal/http"
	"github.com/adstudio/backend/internal/http/handlers"
	"github.com/adstudio/backend/internal/services"
	"github.com/adstudio/backend/internal/siteparser"
	"github.com/adstudio/backend/internal/storage"
	"github.com/adstudio/backend/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, _ := zap.NewProduction()
	if cfg.IsDev() {
		log, _ = zap.NewDevelopment()
	}
	defer log.Sync()

	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}
	defer stores.Close()

	// Redis (optional)
	var rdb *redis.Client
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.URL != "" {
		rdb, err = db.NewRedisClient(ctx, cfg.Redis.URL, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
	}

	// Providers
	prov, err := buildProviders(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to configure providers", zap.Error(err))
	}

	pricing := costs.DefaultPricing()
	if cfg.PricingFile != "" {
		pricing, err = costs.LoadPricing(cfg.PricingFile)
		if err != nil {
			log.Fatal("failed to load pricing", zap.String("path", cfg.PricingFile), zap.Error(err))
		}
	}
	ledger := costs.NewLedger(stores.Costs, stores.Ads, pricing, log)
	pipeline := generation.NewPipeline(prov.text, prov.image, prov.host, ledger, cfg.StageTimeouts(), cfg.PollPolicy(), log)

	// Background executor
	pool := worker.NewPool(ctx, cfg.Generation.Workers, cfg.Generation.QueueSize, log)
	go func() {
		for te := range pool.Errors() {
			log.Error("background task failed", zap.String("task", te.Task), zap.Bool("panic", te.Panic), zap.Error(te.Err))
		}
	}()

	// Services
	orchestrator := services.NewOrchestrator(
		stores.Campaigns, stores.Brands, stores.Ads, stores.History,
		prov.host, pipeline, publisher, cfg.Generation.ItemConcurrency, log,
	)
	campaignService := services.NewCampaignService(
		stores.Campaigns, stores.Brands, stores.Ads, stores.History,
		prov.host, orchestrator, pool, publisher, cfg.StaleGenerationTTL, log,
	)
	adService := services.NewAdService(stores.Ads, stores.Brands, pipeline, prov.host, prov.remover, ledger, log)
	site := siteparser.NewParser(cfg.Site.FetchTimeout, cfg.Site.FetchMaxRetries, log)
	brandService := services.NewBrandService(stores.Brands, stores.Campaigns, stores.Ads, prov.host, prov.text, site, ledger, log)

	// A previous process may have died mid-pass.
	if n, err := campaignService.ReconcileStale(ctx); err != nil {
		log.Error("startup reconcile failed", zap.Error(err))
	} else if n > 0 {
		log.Info("startup reconcile reset campaigns", zap.Int("count", n))
	}

	// Fiber app
	app := apphttp.NewApp(log)
	apphttp.SetupRouter(app, cfg, log, rdb, apphttp.Handlers{
		Brands:    handlers.NewBrandHandler(brandService, log),
		Campaigns: handlers.NewCampaignHandler(campaignService, adService, ledger, log),
		Ads:       handlers.NewAdHandler(adService, log),
		Costs:     handlers.NewCostHandler(ledger, log),
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := fmt.Sprintf(":%s", cfg.HTTP.Port)
	log.Info("starting API server", zap.String("addr", addr), zap.String("storage", cfg.Storage))
	if err := app.Listen(addr); err != nil {
		log.Error("server error", zap.Error(err))
	}

	// Running passes are cancelled and still resolve their campaign status.
	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Warn("worker pool did not drain", zap.Error(err))
	}
}
