package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
)

type AdRepo struct{ s *Store }

func (r *AdRepo) CreateWithExport(ctx context.Context, ad *models.Ad, export *models.Export) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailAdWrites != nil {
		return r.s.FailAdWrites
	}
	if ad.CampaignID != nil {
		if _, ok := r.s.campaigns[*ad.CampaignID]; !ok {
			return models.ErrNotFound
		}
	}
	if ad.ID == uuid.Nil {
		ad.ID = uuid.New()
	}
	if _, exists := r.s.ads[ad.ID]; exists {
		return models.ErrConflict
	}
	now := time.Now()
	ad.CreatedAt = now
	ad.GenerationCost = ad.CostBreakdown.Total()
	r.s.ads[ad.ID] = &adRow{Ad: cloneAd(*ad), seq: r.s.next()}

	if export != nil {
		export.ID = uuid.New()
		export.AdID = ad.ID
		export.CreatedAt = now
		r.s.exports[ad.ID] = append(r.s.exports[ad.ID], *export)
	}
	return nil
}

func (r *AdRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.ads[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	a := cloneAd(row.Ad)
	return &a, nil
}

func (r *AdRepo) List(ctx context.Context, f models.AdFilter) ([]models.Ad, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.s.adRowsLocked(func(a *adRow) bool {
		if f.CampaignID != nil && (a.CampaignID == nil || *a.CampaignID != *f.CampaignID) {
			return false
		}
		if f.BrandProfileID != nil && a.BrandProfileID != *f.BrandProfileID {
			return false
		}
		if f.Platform != nil && a.Platform != *f.Platform {
			return false
		}
		return true
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]models.Ad, 0, len(rows))
	for _, row := range page(rows, f.Limit, f.Offset) {
		out = append(out, cloneAd(row.Ad))
	}
	return out, nil
}

func (r *AdRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Ad, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.s.adRowsLocked(func(a *adRow) bool {
		return a.CampaignID != nil && *a.CampaignID == campaignID
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]models.Ad, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneAd(row.Ad))
	}
	return out, nil
}

func (s *Store) adRowsLocked(keep func(*adRow) bool) []*adRow {
	var rows []*adRow
	for _, row := range s.ads {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (r *AdRepo) ListExports(ctx context.Context, adID uuid.UUID) ([]models.Export, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.ads[adID]; !ok {
		return nil, models.ErrNotFound
	}
	return append([]models.Export{}, r.s.exports[adID]...), nil
}

func (r *AdRepo) Detach(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(a *adRow) { a.CampaignID = nil })
}

func (r *AdRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.ads[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.ads, id)
	delete(r.s.exports, id)
	return nil
}

func (r *AdRepo) UpdateImage(ctx context.Context, id uuid.UUID, url, deleteID string) error {
	return r.update(id, func(a *adRow) {
		a.ImageURL = url
		a.ImageDeleteID = deleteID
		exports := r.s.exports[id]
		for i := range exports {
			exports[i].URL = url
		}
	})
}

func (r *AdRepo) UpdateCost(ctx context.Context, id uuid.UUID, b models.CostBreakdown) error {
	return r.update(id, func(a *adRow) { a.SetBreakdown(b) })
}

func (r *AdRepo) update(id uuid.UUID, fn func(*adRow)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.ads[id]
	if !ok {
		return models.ErrNotFound
	}
	fn(row)
	return nil
}

func cloneAd(a models.Ad) models.Ad {
	a.Hashtags = append([]string(nil), a.Hashtags...)
	if a.CampaignID != nil {
		v := *a.CampaignID
		a.CampaignID = &v
	}
	return a
}

// Costs

type CostRepo struct{ s *Store }

func (r *CostRepo) Insert(ctx context.Context, e *models.CostEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailCostWrites != nil {
		return r.s.FailCostWrites
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.s.costs = append(r.s.costs, *e)
	return nil
}

func (r *CostRepo) List(ctx context.Context, since *time.Time) ([]models.CostEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.CostEntry{}
	for i := len(r.s.costs) - 1; i >= 0; i-- {
		e := r.s.costs[i]
		if since != nil && e.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *CostRepo) ListByAd(ctx context.Context, adID uuid.UUID) ([]models.CostEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.CostEntry{}
	for _, e := range r.s.costs {
		if e.AdID != nil && *e.AdID == adID {
			out = append(out, e)
		}
	}
	return out, nil
}

// History

type HistoryRepo struct{ s *Store }

func (r *HistoryRepo) Record(ctx context.Context, entry models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	r.s.audit = append(r.s.audit, entry)
	return nil
}

func (r *HistoryRepo) CampaignHistory(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []models.AuditLog
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		l := r.s.audit[i]
		if l.EntityType == models.EntityCampaign && l.EntityID != nil && *l.EntityID == campaignID {
			rows = append(rows, l)
		}
	}
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(rows) {
		return []models.AuditLog{}, nil
	}
	return rows[offset:min(offset+limit, len(rows))], nil
}
