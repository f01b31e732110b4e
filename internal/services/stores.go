package services

import (
	"context"
	"time"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
)

type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context, f models.CampaignFilter) ([]models.Campaign, error)
	// Update writes the editable fields. It returns models.ErrConflict when
	// the campaign is generating.
	Update(ctx context.Context, c *models.Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	// TransitionStatus sets status to `to` only if it currently equals `from`.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	Touch(ctx context.Context, id uuid.UUID) error
	ListStale(ctx context.Context, status string, updatedBefore time.Time) ([]models.Campaign, error)
}

type BrandStore interface {
	Create(ctx context.Context, b *models.BrandProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BrandProfile, error)
	List(ctx context.Context, limit, offset int) ([]models.BrandProfile, error)
	Update(ctx context.Context, b *models.BrandProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AdStore interface {
	// CreateWithExport persists an ad and its export atomically. The ad id is
	// supplied by the caller.
	CreateWithExport(ctx context.Context, ad *models.Ad, export *models.Export) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ad, error)
	List(ctx context.Context, f models.AdFilter) ([]models.Ad, error)
	// ListByCampaign returns the campaign's ads in creation order.
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Ad, error)
	ListExports(ctx context.Context, adID uuid.UUID) ([]models.Export, error)
	Detach(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateImage(ctx context.Context, id uuid.UUID, url, deleteID string) error
	UpdateCost(ctx context.Context, id uuid.UUID, b models.CostBreakdown) error
}

// CampaignHistory is the append-only campaign audit trail.
type CampaignHistory interface {
	Record(ctx context.Context, entry models.AuditLog) error
	CampaignHistory(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}
