package repositories

import (
	"context"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BrandRepo struct {
	pool *pgxpool.Pool
}

func NewBrandRepo(pool *pgxpool.Pool) *BrandRepo {
	return &BrandRepo{pool: pool}
}

const brandColumns = `id, company_name, industry, website_url, logo_url, brand_voice, visual_style,
	colors, target_audience, unique_selling_points, products, created_at, updated_at`

func scanBrand(row scanner) (*models.BrandProfile, error) {
	var b models.BrandProfile
	err := row.Scan(&b.ID, &b.CompanyName, &b.Industry, &b.WebsiteURL, &b.LogoURL, &b.BrandVoice,
		&b.VisualStyle, &b.Colors, &b.TargetAudience, &b.UniqueSellingPoints, &b.Products,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func usps(b *models.BrandProfile) []string {
	if b.UniqueSellingPoints == nil {
		return []string{}
	}
	return b.UniqueSellingPoints
}

func (r *BrandRepo) Create(ctx context.Context, b *models.BrandProfile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO brand_profiles (company_name, industry, website_url, logo_url, brand_voice,
		                            visual_style, colors, target_audience, unique_selling_points, products)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, b.CompanyName, b.Industry, b.WebsiteURL, b.LogoURL, b.BrandVoice,
		b.VisualStyle, b.Colors, b.TargetAudience, usps(b), b.Products,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BrandRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BrandProfile, error) {
	b, err := scanBrand(r.pool.QueryRow(ctx, `SELECT `+brandColumns+` FROM brand_profiles WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (r *BrandRepo) List(ctx context.Context, limit, offset int) ([]models.BrandProfile, error) {
	var w whereBuilder
	rows, err := r.pool.Query(ctx, `SELECT `+brandColumns+` FROM brand_profiles ORDER BY created_at DESC`+
		w.page(limit, offset), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []models.BrandProfile
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		brands = append(brands, *b)
	}
	return brands, rows.Err()
}

func (r *BrandRepo) Update(ctx context.Context, b *models.BrandProfile) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE brand_profiles SET company_name = $1, industry = $2, website_url = $3, logo_url = $4,
		       brand_voice = $5, visual_style = $6, colors = $7, target_audience = $8,
		       unique_selling_points = $9, products = $10, updated_at = now()
		WHERE id = $11
		RETURNING created_at, updated_at
	`, b.CompanyName, b.Industry, b.WebsiteURL, b.LogoURL, b.BrandVoice,
		b.VisualStyle, b.Colors, b.TargetAudience, usps(b), b.Products, b.ID,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return notFound(err)
}

// Delete removes the profile; campaigns, ads and exports go with it by
// foreign key cascade.
func (r *BrandRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM brand_profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
