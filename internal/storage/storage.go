// Package storage opens the configured repository backend.
package storage

import (
	"context"
	"fmt"

	"github.com/adstudio/backend/internal/config"
	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/db"
	"github.com/adstudio/backend/internal/memstore"
	"github.com/adstudio/backend/internal/repositories"
	"github.com/adstudio/backend/internal/services"
	"go.uber.org/zap"
)

type Stores struct {
	Campaigns services.CampaignStore
	Brands    services.BrandStore
	Ads       services.AdStore
	History   services.CampaignHistory
	Costs     costs.EntryStore

	close func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

func Memory() *Stores {
	m := memstore.New()
	return &Stores{
		Campaigns: m.Campaigns(),
		Brands:    m.Brands(),
		Ads:       m.Ads(),
		History:   m.History(),
		Costs:     m.Costs(),
	}
}

// Open returns the backend named by cfg.Storage. For postgres it migrates
// first when cfg.Postgres.RunMigrations is set.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stores, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return Memory(), nil
	case config.StoragePostgres:
		if cfg.Postgres.RunMigrations {
			if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres.DSN, db.PoolOptions{
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Stores{
			Campaigns: repositories.NewCampaignRepo(pool),
			Brands:    repositories.NewBrandRepo(pool),
			Ads:       repositories.NewAdRepo(pool),
			History:   repositories.NewHistoryRepo(pool),
			Costs:     repositories.NewCostRepo(pool),
			close:     pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
