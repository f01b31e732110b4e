// Package costs records what each provider call cost and rolls the ledger up
// per ad, per campaign and globally.
package costs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRecentLimit = 50

type EntryStore interface {
	Insert(ctx context.Context, e *models.CostEntry) error
	// List returns entries created at or after since (all when nil), newest first.
	List(ctx context.Context, since *time.Time) ([]models.CostEntry, error)
	ListByAd(ctx context.Context, adID uuid.UUID) ([]models.CostEntry, error)
}

type AdReader interface {
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Ad, error)
}

// Usage is a single billable provider call.
type Usage struct {
	Service      string
	Operation    string
	Model        string
	InputTokens  int
	OutputTokens int
	Images       int
	Requests     int
}

func (u Usage) detail() map[string]any {
	d := map[string]any{}
	if u.Model != "" {
		d["model"] = u.Model
	}
	if u.InputTokens > 0 || u.OutputTokens > 0 {
		d["input_tokens"] = u.InputTokens
		d["output_tokens"] = u.OutputTokens
	}
	if u.Images > 0 {
		d["images"] = u.Images
	}
	if u.Requests > 0 {
		d["requests"] = u.Requests
	}
	return d
}

type Ledger struct {
	store   EntryStore
	ads     AdReader
	pricing *Pricing
	log     *zap.Logger
}

func NewLedger(store EntryStore, ads AdReader, pricing *Pricing, log *zap.Logger) *Ledger {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	return &Ledger{store: store, ads: ads, pricing: pricing, log: log}
}

func (l *Ledger) Pricing() *Pricing { return l.pricing }

func (l *Ledger) Record(ctx context.Context, service, operation string, amount float64, detail map[string]any, adID *uuid.UUID) (*models.CostEntry, error) {
	e := &models.CostEntry{
		Service:   service,
		Operation: operation,
		Amount:    amount,
		Detail:    detail,
		AdID:      adID,
	}
	if err := l.store.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("record cost %s/%s: %w", service, operation, err)
	}
	return e, nil
}

// Charge prices u and records it. The computed amount is returned even when
// the write fails.
func (l *Ledger) Charge(ctx context.Context, u Usage, adID *uuid.UUID) (float64, error) {
	amount, ok := l.pricing.Amount(u)
	if !ok {
		l.log.Warn("no price configured, recording zero cost",
			zap.String("service", u.Service),
			zap.String("operation", u.Operation),
		)
	}
	_, err := l.Record(ctx, u.Service, u.Operation, amount, u.detail(), adID)
	return amount, err
}

type ServiceSummary struct {
	Count        int     `json:"count"`
	TotalCost    float64 `json:"total_cost"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Images       int64   `json:"images"`
	Requests     int64   `json:"requests"`
}

type Summary struct {
	Since         *time.Time                 `json:"since,omitempty"`
	TotalCost     float64                    `json:"total_cost"`
	ByService     map[string]*ServiceSummary `json:"by_service"`
	RecentEntries []models.CostEntry         `json:"recent_entries"`
}

// Summary aggregates every ledger entry since the given time, including
// entries whose ad was never persisted.
func (l *Ledger) Summary(ctx context.Context, since *time.Time) (*Summary, error) {
	entries, err := l.store.List(ctx, since)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(entries)

	s := &Summary{Since: since, ByService: map[string]*ServiceSummary{}}
	for _, e := range entries {
		s.TotalCost += e.Amount
		ss, ok := s.ByService[e.Service]
		if !ok {
			ss = &ServiceSummary{}
			s.ByService[e.Service] = ss
		}
		ss.Count++
		ss.TotalCost += e.Amount
		ss.InputTokens += detailInt(e.Detail, "input_tokens")
		ss.OutputTokens += detailInt(e.Detail, "output_tokens")
		ss.Images += detailInt(e.Detail, "images")
		ss.Requests += detailInt(e.Detail, "requests")
	}

	n := min(len(entries), defaultRecentLimit)
	s.RecentEntries = append([]models.CostEntry{}, entries[:n]...)
	return s, nil
}

type AdCosts struct {
	AdID      uuid.UUID            `json:"ad_id"`
	Total     float64              `json:"total"`
	Breakdown models.CostBreakdown `json:"breakdown"`
	Entries   []models.CostEntry   `json:"entries"`
}

func (l *Ledger) CostsForAd(ctx context.Context, adID uuid.UUID) (*AdCosts, error) {
	entries, err := l.store.ListByAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	b := BreakdownFromEntries(entries)
	return &AdCosts{AdID: adID, Total: b.Total(), Breakdown: b, Entries: entries}, nil
}

type AdCostLine struct {
	AdID        uuid.UUID            `json:"ad_id"`
	Platform    string               `json:"platform"`
	ProductName *string              `json:"product_name,omitempty"`
	Cost        float64              `json:"cost"`
	Breakdown   models.CostBreakdown `json:"breakdown"`
}

type CampaignCosts struct {
	CampaignID   uuid.UUID    `json:"campaign_id"`
	Total        float64      `json:"total"`
	AdCount      int          `json:"ad_count"`
	AveragePerAd float64      `json:"average_per_ad"`
	Ads          []AdCostLine `json:"ads"`
}

// CostsForCampaign sums the stored totals of the campaign's ads. Spend on
// items that failed before persistence is not part of it.
func (l *Ledger) CostsForCampaign(ctx context.Context, campaignID uuid.UUID) (*CampaignCosts, error) {
	ads, err := l.ads.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	cc := &CampaignCosts{CampaignID: campaignID, AdCount: len(ads), Ads: make([]AdCostLine, 0, len(ads))}
	for _, a := range ads {
		cc.Total += a.GenerationCost
		cc.Ads = append(cc.Ads, AdCostLine{
			AdID:        a.ID,
			Platform:    a.Platform,
			ProductName: a.ProductName,
			Cost:        a.GenerationCost,
			Breakdown:   a.CostBreakdown,
		})
	}
	if cc.AdCount > 0 {
		cc.AveragePerAd = cc.Total / float64(cc.AdCount)
	}
	return cc, nil
}

// BreakdownFromEntries folds ledger entries into breakdown fields by operation.
// Prompt synthesis is text-model spend and lands in copy generation.
func BreakdownFromEntries(entries []models.CostEntry) models.CostBreakdown {
	var b models.CostBreakdown
	for _, e := range entries {
		AddToBreakdown(&b, e.Operation, e.Amount)
	}
	return b
}

func AddToBreakdown(b *models.CostBreakdown, operation string, amount float64) {
	switch operation {
	case models.OpImageGeneration:
		b.ImageGeneration += amount
	case models.OpPromptSynthesis, models.OpCopyGeneration:
		b.CopyGeneration += amount
	case models.OpBackgroundRemoval:
		b.BackgroundRemoval += amount
	case models.OpUpload:
		b.Upload += amount
	}
}

func sortNewestFirst(entries []models.CostEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// detailInt reads a counter from an entry detail. Values are ints when the
// entry was built in process and float64 after a JSON round trip.
func detailInt(d map[string]any, key string) int64 {
	switch v := d[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}
