package repositories

import (
	"context"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdRepo struct {
	pool *pgxpool.Pool
}

func NewAdRepo(pool *pgxpool.Pool) *AdRepo {
	return &AdRepo{pool: pool}
}

const adColumns = `id, campaign_id, brand_profile_id, platform, style, headline, body, call_to_action,
	hashtags, image_url, image_delete_id, image_prompt, product_name, product_index,
	generation_cost, cost_breakdown, created_at`

func scanAd(row scanner) (*models.Ad, error) {
	var a models.Ad
	err := row.Scan(&a.ID, &a.CampaignID, &a.BrandProfileID, &a.Platform, &a.Style, &a.Headline,
		&a.Body, &a.CallToAction, &a.Hashtags, &a.ImageURL, &a.ImageDeleteID, &a.ImagePrompt,
		&a.ProductName, &a.ProductIndex, &a.GenerationCost, &a.CostBreakdown, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateWithExport inserts the ad and its export in one transaction.
func (r *AdRepo) CreateWithExport(ctx context.Context, ad *models.Ad, export *models.Export) error {
	if ad.ID == uuid.Nil {
		ad.ID = uuid.New()
	}
	if ad.Hashtags == nil {
		ad.Hashtags = []string{}
	}
	ad.GenerationCost = ad.CostBreakdown.Total()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO ads (id, campaign_id, brand_profile_id, platform, style, headline, body,
			                 call_to_action, hashtags, image_url, image_delete_id, image_prompt,
			                 product_name, product_index, generation_cost, cost_breakdown)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING created_at
		`, ad.ID, ad.CampaignID, ad.BrandProfileID, ad.Platform, ad.Style, ad.Headline, ad.Body,
			ad.CallToAction, ad.Hashtags, ad.ImageURL, ad.ImageDeleteID, ad.ImagePrompt,
			ad.ProductName, ad.ProductIndex, ad.GenerationCost, ad.CostBreakdown,
		).Scan(&ad.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return models.ErrNotFound
			}
			return err
		}
		if export == nil {
			return nil
		}

		export.AdID = ad.ID
		return tx.QueryRow(ctx, `
			INSERT INTO exports (ad_id, platform, width, height, format, url)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, export.AdID, export.Platform, export.Width, export.Height, export.Format, export.URL,
		).Scan(&export.ID, &export.CreatedAt)
	})
}

func (r *AdRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	a, err := scanAd(r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *AdRepo) List(ctx context.Context, f models.AdFilter) ([]models.Ad, error) {
	var w whereBuilder
	if f.CampaignID != nil {
		w.add("campaign_id = $%d", *f.CampaignID)
	}
	if f.BrandProfileID != nil {
		w.add("brand_profile_id = $%d", *f.BrandProfileID)
	}
	if f.Platform != nil {
		w.add("platform = $%d", *f.Platform)
	}
	return r.query(ctx, `SELECT `+adColumns+` FROM ads`+w.sql()+` ORDER BY seq DESC`+
		w.page(f.Limit, f.Offset), w.args...)
}

// ListByCampaign returns the campaign's ads in the order they were stored.
func (r *AdRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Ad, error) {
	return r.query(ctx, `SELECT `+adColumns+` FROM ads WHERE campaign_id = $1 ORDER BY seq`, campaignID)
}

func (r *AdRepo) ListExports(ctx context.Context, adID uuid.UUID) ([]models.Export, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ads WHERE id = $1)`, adID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrNotFound
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, ad_id, platform, width, height, format, url, created_at
		FROM exports WHERE ad_id = $1 ORDER BY created_at
	`, adID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exports := []models.Export{}
	for rows.Next() {
		var e models.Export
		if err := rows.Scan(&e.ID, &e.AdID, &e.Platform, &e.Width, &e.Height, &e.Format, &e.URL, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

func (r *AdRepo) Detach(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `UPDATE ads SET campaign_id = NULL WHERE id = $1`, id)
}

func (r *AdRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
}

// UpdateImage points the ad and its exports at a new hosted image.
func (r *AdRepo) UpdateImage(ctx context.Context, id uuid.UUID, url, deleteID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE ads SET image_url = $1, image_delete_id = $2 WHERE id = $3`, url, deleteID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE exports SET url = $1 WHERE ad_id = $2`, url, id)
		return err
	})
}

func (r *AdRepo) UpdateCost(ctx context.Context, id uuid.UUID, b models.CostBreakdown) error {
	return r.exec(ctx, `UPDATE ads SET cost_breakdown = $1, generation_cost = $2 WHERE id = $3`, b, b.Total(), id)
}

func (r *AdRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *AdRepo) query(ctx context.Context, sql string, args ...any) ([]models.Ad, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, *a)
	}
	return ads, rows.Err()
}
