package repositories

import (
	"context"
	"time"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

const campaignColumns = `id, brand_profile_id, name, description, platforms, style,
	custom_instructions, selected_products, include_brand_ad, status, created_at, updated_at`

func scanCampaign(row scanner) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.BrandProfileID, &c.Name, &c.Description, &c.Platforms, &c.Style,
		&c.CustomInstructions, &c.SelectedProducts, &c.IncludeBrandAd, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (brand_profile_id, name, description, platforms, style,
		                       custom_instructions, selected_products, include_brand_ad, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, c.BrandProfileID, c.Name, c.Description, c.Platforms, c.Style,
		c.CustomInstructions, c.SelectedProducts, c.IncludeBrandAd, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isForeignKeyViolation(err) {
		return models.ErrNotFound
	}
	return err
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Update writes the editable fields unless the campaign is generating.
func (r *CampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET name = $1, description = $2, platforms = $3, style = $4,
		       custom_instructions = $5, selected_products = $6, include_brand_ad = $7,
		       updated_at = now()
		WHERE id = $8 AND status <> $9
	`, c.Name, c.Description, c.Platforms, c.Style,
		c.CustomInstructions, c.SelectedProducts, c.IncludeBrandAd,
		c.ID, models.CampaignStatusGenerating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
		return models.ErrConflict
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) List(ctx context.Context, f models.CampaignFilter) ([]models.Campaign, error) {
	var w whereBuilder
	if f.BrandProfileID != nil {
		w.add("brand_profile_id = $%d", *f.BrandProfileID)
	}
	if f.Status != nil {
		w.add("status = $%d", *f.Status)
	}
	query := `SELECT ` + campaignColumns + ` FROM campaigns` + w.sql() +
		` ORDER BY created_at DESC, seq DESC` + w.page(f.Limit, f.Offset)

	return r.query(ctx, query, w.args...)
}

// TransitionStatus is a compare-and-set on status.
func (r *CampaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Touch bumps updated_at, the heartbeat of a running generation pass.
func (r *CampaignRepo) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE campaigns SET updated_at = now() WHERE id = $1`, id)
	return err
}

func (r *CampaignRepo) ListStale(ctx context.Context, status string, updatedBefore time.Time) ([]models.Campaign, error) {
	return r.query(ctx, `SELECT `+campaignColumns+` FROM campaigns
		WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`, status, updatedBefore)
}

func (r *CampaignRepo) query(ctx context.Context, sql string, args ...any) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}
