package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adstudio/backend/internal/config"
	"github.com/adstudio/backend/internal/db"
	"github.com/adstudio/backend/internal/events"
	"github.com/adstudio/backend/internal/services"
	"github.com/adstudio/backend/internal/storage"
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

	if cfg.Storage != config.StoragePostgres {
		log.Fatal("worker needs shared storage, set STORAGE_BACKEND=postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}
	defer stores.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.URL != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis.URL, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
	}

	// Only the reconcile sweep runs here, so no providers or pool.
	campaignService := services.NewCampaignService(
		stores.Campaigns, stores.Brands, stores.Ads, stores.History,
		nil, nil, nil, publisher, cfg.StaleGenerationTTL, log,
	)

	log.Info("worker started",
		zap.Duration("interval", cfg.ReconcileInterval),
		zap.Duration("stale_ttl", cfg.StaleGenerationTTL),
	)

	reconcileTicker := time.NewTicker(cfg.ReconcileInterval)
	defer reconcileTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runReconcile(ctx, campaignService, log)
	for {
		select {
		case <-reconcileTicker.C:
			runReconcile(ctx, campaignService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		}
	}
}

func runReconcile(ctx context.Context, svc *services.CampaignService, log *zap.Logger) {
	n, err := svc.ReconcileStale(ctx)
	if err != nil {
		log.Error("reconcile failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("reset stale campaigns", zap.Int("count", n))
	}
}
