package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/adstudio/backend/internal/auth"
	"github.com/adstudio/backend/internal/config"
	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/db"
	"github.com/adstudio/backend/internal/events"
	"github.com/adstudio/backend/internal/platforms"
	"github.com/adstudio/backend/internal/rbac"
	"github.com/adstudio/backend/internal/services"
	"github.com/adstudio/backend/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema migrations to POSTGRES_DSN",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger()
		defer log.Sync()

		if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !rbac.IsValidRole(tokenRole) {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.Auth.Expiration
		}
		token, err := auth.GenerateJWT(cfg.Auth.Secret, tokenSubject, tokenRole, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var pricingFile string

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Print the effective pricing table",
	Long: `Print the pricing table the ledger would use.

With --file (or PRICING_FILE) the YAML is loaded over the built-in rates,
which also validates it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := pricingFile
		if path == "" {
			if cfg, err := config.Load(); err == nil {
				path = cfg.PricingFile
			}
		}
		pricing := costs.DefaultPricing()
		if path != "" {
			var err error
			if pricing, err = costs.LoadPricing(path); err != nil {
				return err
			}
		}
		return writePricing(cmd, pricing)
	},
}

func writePricing(cmd *cobra.Command, pricing *costs.Pricing) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tOPERATION\tUNIT\tINPUT/1K\tOUTPUT/1K\tPER UNIT")
	for _, p := range pricing.Rows() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%.6f\t%.6f\n", p.Service, p.Operation, p.Unit, p.InputPer1K, p.OutputPer1K, p.PerUnit)
	}
	return w.Flush()
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reset campaigns stuck in generating past STALE_GENERATION_TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Storage != config.StoragePostgres {
			return fmt.Errorf("reconcile needs STORAGE_BACKEND=postgres")
		}
		log := newLogger()
		defer log.Sync()

		ctx := cmd.Context()
		stores, err := storage.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stores.Close()

		svc := services.NewCampaignService(
			stores.Campaigns, stores.Brands, stores.Ads, stores.History,
			nil, nil, nil, events.NopPublisher{}, cfg.StaleGenerationTTL, log,
		)
		n, err := svc.ReconcileStale(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset %d campaign(s)\n", n)
		return nil
	},
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms and their canvas sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSIZE\tRATIO")
		for _, p := range platforms.All() {
			fmt.Fprintf(w, "%s\t%s\t%dx%d\t%.3f\n", p.ID, p.Name, p.Width, p.Height, p.AspectRatio())
		}
		return w.Flush()
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail campaign status events from Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is not set")
		}
		log := newLogger()
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rdb, err := db.NewRedisClient(ctx, cfg.Redis.URL, log)
		if err != nil {
			return err
		}
		defer rdb.Close()

		out := json.NewEncoder(cmd.OutOrStdout())
		sub := events.NewRedisSubscriber(rdb, log)
		if err := sub.Subscribe(ctx, events.StreamCampaign, func(e events.Event) {
			if err := out.Encode(e); err != nil {
				log.Warn("write event", zap.Error(err))
			}
		}); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	},
}
