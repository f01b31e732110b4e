package repositories

import (
	"context"
	"time"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CostRepo struct {
	pool *pgxpool.Pool
}

func NewCostRepo(pool *pgxpool.Pool) *CostRepo {
	return &CostRepo{pool: pool}
}

func (r *CostRepo) Insert(ctx context.Context, e *models.CostEntry) error {
	detail := e.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO cost_entries (service, operation, amount, detail, ad_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.Service, e.Operation, e.Amount, detail, e.AdID).Scan(&e.ID, &e.CreatedAt)
}

// List returns entries newest first, optionally only those at or after since.
func (r *CostRepo) List(ctx context.Context, since *time.Time) ([]models.CostEntry, error) {
	var w whereBuilder
	if since != nil {
		w.add("created_at >= $%d", *since)
	}
	return r.query(ctx, `SELECT id, service, operation, amount, detail, ad_id, created_at
		FROM cost_entries`+w.sql()+` ORDER BY created_at DESC, seq DESC`, w.args...)
}

func (r *CostRepo) ListByAd(ctx context.Context, adID uuid.UUID) ([]models.CostEntry, error) {
	return r.query(ctx, `SELECT id, service, operation, amount, detail, ad_id, created_at
		FROM cost_entries WHERE ad_id = $1 ORDER BY seq`, adID)
}

func (r *CostRepo) query(ctx context.Context, sql string, args ...any) ([]models.CostEntry, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.CostEntry{}
	for rows.Next() {
		var e models.CostEntry
		if err := rows.Scan(&e.ID, &e.Service, &e.Operation, &e.Amount, &e.Detail, &e.AdID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
