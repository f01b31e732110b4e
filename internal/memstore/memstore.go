// Package memstore is an in-process implementation of the repositories,
// used by tests and by the memory storage backend. One lock guards every
// table so cascades are atomic.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
)

type Store struct {
	mu        sync.RWMutex
	seq       int64
	campaigns map[uuid.UUID]*campaignRow
	brands    map[uuid.UUID]*brandRow
	ads       map[uuid.UUID]*adRow
	exports   map[uuid.UUID][]models.Export
	costs     []models.CostEntry
	audit     []models.AuditLog

	// FailAdWrites makes CreateWithExport fail; tests use it to simulate a
	// persistence outage.
	FailAdWrites error
	// FailCostWrites makes cost inserts fail.
	FailCostWrites error
}

type campaignRow struct {
	models.Campaign
	seq int64
}

type brandRow struct {
	models.BrandProfile
	seq int64
}

type adRow struct {
	models.Ad
	seq int64
}

func New() *Store {
	return &Store{
		campaigns: map[uuid.UUID]*campaignRow{},
		brands:    map[uuid.UUID]*brandRow{},
		ads:       map[uuid.UUID]*adRow{},
		exports:   map[uuid.UUID][]models.Export{},
	}
}

func (s *Store) Campaigns() *CampaignRepo { return &CampaignRepo{s: s} }
func (s *Store) Brands() *BrandRepo       { return &BrandRepo{s: s} }
func (s *Store) Ads() *AdRepo             { return &AdRepo{s: s} }
func (s *Store) Costs() *CostRepo         { return &CostRepo{s: s} }
func (s *Store) History() *HistoryRepo    { return &HistoryRepo{s: s} }

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func page[T any](rows []T, limit, offset int) []T {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset >= len(rows) {
		return []T{}
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end]
}

// Campaigns

type CampaignRepo struct{ s *Store }

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.brands[c.BrandProfileID]; !ok {
		return models.ErrNotFound
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.campaigns[c.ID] = &campaignRow{Campaign: cloneCampaign(*c), seq: r.s.next()}
	return nil
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := cloneCampaign(row.Campaign)
	return &c, nil
}

func (r *CampaignRepo) List(ctx context.Context, f models.CampaignFilter) ([]models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := make([]*campaignRow, 0, len(r.s.campaigns))
	for _, row := range r.s.campaigns {
		if f.BrandProfileID != nil && row.BrandProfileID != *f.BrandProfileID {
			continue
		}
		if f.Status != nil && row.Status != *f.Status {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]models.Campaign, 0, len(rows))
	for _, row := range page(rows, f.Limit, f.Offset) {
		out = append(out, cloneCampaign(row.Campaign))
	}
	return out, nil
}

func (r *CampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.campaigns[c.ID]
	if !ok {
		return models.ErrNotFound
	}
	if row.Status == models.CampaignStatusGenerating {
		return models.ErrConflict
	}
	row.Name = c.Name
	row.Description = c.Description
	row.Platforms = append([]string(nil), c.Platforms...)
	row.Style = c.Style
	row.CustomInstructions = c.CustomInstructions
	row.SelectedProducts = append([]int(nil), c.SelectedProducts...)
	row.IncludeBrandAd = c.IncludeBrandAd
	row.UpdatedAt = time.Now()
	*c = cloneCampaign(row.Campaign)
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.campaigns[id]; !ok {
		return models.ErrNotFound
	}
	r.s.deleteCampaignLocked(id)
	return nil
}

func (s *Store) deleteCampaignLocked(id uuid.UUID) {
	delete(s.campaigns, id)
	for adID, ad := range s.ads {
		if ad.CampaignID != nil && *ad.CampaignID == id {
			delete(s.ads, adID)
			delete(s.exports, adID)
		}
	}
}

func (r *CampaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.campaigns[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if row.Status != from {
		return false, nil
	}
	row.Status = to
	row.UpdatedAt = time.Now()
	return true, nil
}

func (r *CampaignRepo) Touch(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.campaigns[id]
	if !ok {
		return models.ErrNotFound
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (r *CampaignRepo) ListStale(ctx context.Context, status string, updatedBefore time.Time) ([]models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Campaign
	for _, row := range r.s.campaigns {
		if row.Status == status && row.UpdatedAt.Before(updatedBefore) {
			out = append(out, cloneCampaign(row.Campaign))
		}
	}
	return out, nil
}

// SetUpdatedAt backdates a campaign; tests use it to simulate stale rows.
func (r *CampaignRepo) SetUpdatedAt(id uuid.UUID, t time.Time) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.campaigns[id]; ok {
		row.UpdatedAt = t
	}
}

func cloneCampaign(c models.Campaign) models.Campaign {
	c.Platforms = append([]string(nil), c.Platforms...)
	c.SelectedProducts = append([]int(nil), c.SelectedProducts...)
	if c.CustomInstructions != nil {
		v := *c.CustomInstructions
		c.CustomInstructions = &v
	}
	return c
}

// Brands

type BrandRepo struct{ s *Store }

func (r *BrandRepo) Create(ctx context.Context, b *models.BrandProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.brands[b.ID] = &brandRow{BrandProfile: cloneBrand(*b), seq: r.s.next()}
	return nil
}

func (r *BrandRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BrandProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.brands[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	b := cloneBrand(row.BrandProfile)
	return &b, nil
}

func (r *BrandRepo) List(ctx context.Context, limit, offset int) ([]models.BrandProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := make([]*brandRow, 0, len(r.s.brands))
	for _, row := range r.s.brands {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]models.BrandProfile, 0, len(rows))
	for _, row := range page(rows, limit, offset) {
		out = append(out, cloneBrand(row.BrandProfile))
	}
	return out, nil
}

func (r *BrandRepo) Update(ctx context.Context, b *models.BrandProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.brands[b.ID]
	if !ok {
		return models.ErrNotFound
	}
	b.CreatedAt = row.CreatedAt
	b.UpdatedAt = time.Now()
	row.BrandProfile = cloneBrand(*b)
	return nil
}

func (r *BrandRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.brands[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.brands, id)
	for cid, c := range r.s.campaigns {
		if c.BrandProfileID == id {
			r.s.deleteCampaignLocked(cid)
		}
	}
	for adID, ad := range r.s.ads {
		if ad.BrandProfileID == id {
			delete(r.s.ads, adID)
			delete(r.s.exports, adID)
		}
	}
	return nil
}

func cloneBrand(b models.BrandProfile) models.BrandProfile {
	b.UniqueSellingPoints = append([]string(nil), b.UniqueSellingPoints...)
	products := make([]models.Product, len(b.Products))
	for i, p := range b.Products {
		p.Features = append([]string(nil), p.Features...)
		p.Benefits = append([]string(nil), p.Benefits...)
		products[i] = p
	}
	b.Products = products
	return b
}
