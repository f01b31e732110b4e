package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/adstudio/backend/internal/events"
	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ItemRunner produces the artifact for one work item.
type ItemRunner interface {
	Run(ctx context.Context, item generation.WorkItem, in generation.RunInput) (*generation.Artifact, error)
}

const StagePersist = "persistence"

type ItemFailure struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type Outcome struct {
	CampaignID uuid.UUID     `json:"campaign_id"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	Status     string        `json:"status"`
}

// Orchestrator runs one generation pass for a campaign that is already in
// the generating state and resolves it to active or draft.
type Orchestrator struct {
	campaigns   CampaignStore
	brands      BrandStore
	ads         AdStore
	history     CampaignHistory
	host        generation.AssetHost
	runner      ItemRunner
	publisher   events.Publisher
	concurrency int
	log         *zap.Logger
}

func NewOrchestrator(
	campaigns CampaignStore,
	brands BrandStore,
	ads AdStore,
	history CampaignHistory,
	host generation.AssetHost,
	runner ItemRunner,
	publisher events.Publisher,
	concurrency int,
	log *zap.Logger,
) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		campaigns:   campaigns,
		brands:      brands,
		ads:         ads,
		history:     history,
		host:        host,
		runner:      runner,
		publisher:   publisher,
		concurrency: concurrency,
		log:         log,
	}
}

// Run expands the campaign, drives every item through the runner and sets
// the final status exactly once, after all items have finished. A panic
// during the pass is recovered and still resolves the status.
func (o *Orchestrator) Run(ctx context.Context, campaignID uuid.UUID) (out *Outcome, err error) {
	out = &Outcome{CampaignID: campaignID}
	log := o.log.With(zap.String("campaign_id", campaignID.String()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("generation pass panicked", zap.Any("panic", r))
			err = fmt.Errorf("generation pass panicked: %v", r)
		}
		out.Status = o.resolve(ctx, campaignID, out)
	}()

	c, err := o.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return out, fmt.Errorf("load campaign: %w", err)
	}
	brand, err := o.brands.GetByID(ctx, c.BrandProfileID)
	if err != nil {
		return out, fmt.Errorf("load brand profile: %w", err)
	}

	items := generation.Expand(c, brand)
	out.Total = len(items)
	if len(items) == 0 {
		log.Warn("work matrix is empty")
		return out, nil
	}

	log.Info("generation pass started", zap.Int("items", len(items)), zap.Int("concurrency", o.concurrency))
	o.runItems(ctx, c, brand, items, out)
	log.Info("generation pass finished",
		zap.Int("items", out.Total),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", len(out.Failures)),
	)
	return out, nil
}

type itemResult struct {
	item generation.WorkItem
	adID uuid.UUID
	art  *generation.Artifact
	err  error
}

// commitCursor persists results in work matrix order regardless of the
// order in which items finish.
type commitCursor struct {
	mu      sync.Mutex
	next    int
	pending map[int]*itemResult
}

func (o *Orchestrator) runItems(ctx context.Context, c *models.Campaign, brand *models.BrandProfile, items []generation.WorkItem, out *Outcome) {
	cur := &commitCursor{pending: make(map[int]*itemResult, len(items))}

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for _, item := range items {
		if ctx.Err() != nil {
			o.log.Warn("generation pass cancelled, not scheduling remaining items",
				zap.String("campaign_id", c.ID.String()),
				zap.Int("remaining", len(items)-item.Index),
			)
			break
		}
		g.Go(func() error {
			adID := uuid.New()
			art, err := o.runItem(ctx, item, generation.RunInput{
				Brand:        brand,
				Style:        c.Style,
				Instructions: c.Instructions(),
				AdID:         adID,
			})
			o.commit(ctx, c, cur, &itemResult{item: item, adID: adID, art: art, err: err}, out)
			return nil
		})
	}
	_ = g.Wait()
}

// runItem turns a panic in one item into that item's failure so the commit
// cursor still advances past it.
func (o *Orchestrator) runItem(ctx context.Context, item generation.WorkItem, in generation.RunInput) (art *generation.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, fmt.Errorf("work item panicked: %v", r)
		}
	}()
	return o.runner.Run(ctx, item, in)
}

func (o *Orchestrator) commit(ctx context.Context, c *models.Campaign, cur *commitCursor, res *itemResult, out *Outcome) {
	cur.mu.Lock()
	defer cur.mu.Unlock()

	cur.pending[res.item.Index] = res
	for {
		r, ok := cur.pending[cur.next]
		if !ok {
			return
		}
		delete(cur.pending, cur.next)
		cur.next++
		o.persist(context.WithoutCancel(ctx), c, r, out)
	}
}

func (o *Orchestrator) persist(ctx context.Context, c *models.Campaign, r *itemResult, out *Outcome) {
	log := o.log.With(
		zap.String("campaign_id", c.ID.String()),
		zap.String("item", r.item.Label()),
		zap.String("ad_id", r.adID.String()),
	)

	if r.err != nil {
		stage := "unknown"
		var se *generation.StageError
		if errors.As(r.err, &se) {
			stage = se.Stage
		}
		log.Warn("work item failed", zap.String("stage", stage), zap.Error(r.err))
		out.Failures = append(out.Failures, ItemFailure{Index: r.item.Index, Label: r.item.Label(), Stage: stage, Error: r.err.Error()})
		o.heartbeat(ctx, c.ID)
		return
	}

	ad, export := buildAd(c.ID, c.BrandProfileID, c.Style, r.art)
	if err := o.ads.CreateWithExport(ctx, ad, export); err != nil {
		log.Error("persisting ad failed", zap.Error(err))
		out.Failures = append(out.Failures, ItemFailure{Index: r.item.Index, Label: r.item.Label(), Stage: StagePersist, Error: err.Error()})
		if derr := o.host.Delete(ctx, r.art.ImageDeleteID); derr != nil {
			log.Warn("deleting orphaned image failed", zap.Error(derr))
		}
		o.heartbeat(ctx, c.ID)
		return
	}

	out.Succeeded++
	if r.art.CopyFallback {
		log.Info("ad persisted with template copy")
	}
	o.heartbeat(ctx, c.ID)
}

func (o *Orchestrator) heartbeat(ctx context.Context, id uuid.UUID) {
	if err := o.campaigns.Touch(ctx, id); err != nil {
		o.log.Warn("campaign heartbeat failed", zap.String("campaign_id", id.String()), zap.Error(err))
	}
}

// resolve moves the campaign out of generating. It runs on a context that
// ignores cancellation so shutdown cannot strand the campaign.
func (o *Orchestrator) resolve(ctx context.Context, id uuid.UUID, out *Outcome) string {
	rctx := context.WithoutCancel(ctx)
	to := models.CampaignStatusDraft
	if out.Succeeded > 0 {
		to = models.CampaignStatusActive
	}

	ok, err := o.campaigns.TransitionStatus(rctx, id, models.CampaignStatusGenerating, to)
	if err != nil {
		o.log.Error("resolving campaign status failed", zap.String("campaign_id", id.String()), zap.Error(err))
		return ""
	}
	if !ok {
		o.log.Warn("campaign left generating before the pass resolved it", zap.String("campaign_id", id.String()))
		return ""
	}

	logCampaignTransition(rctx, o.history, o.publisher, o.log, id, models.CampaignStatusGenerating, to, models.ActorSystem, map[string]any{
		"items":        out.Total,
		"ads_created":  out.Succeeded,
		"items_failed": len(out.Failures),
	})
	return to
}

func buildAd(campaignID uuid.UUID, brandID uuid.UUID, style string, art *generation.Artifact) (*models.Ad, *models.Export) {
	ad := &models.Ad{
		ID:             art.AdID,
		BrandProfileID: brandID,
		Platform:       art.Item.Platform.ID,
		Style:          style,
		Headline:       art.Copy.Headline,
		Body:           art.Copy.Body,
		CallToAction:   art.Copy.CallToAction,
		Hashtags:       art.Copy.Hashtags,
		ImageURL:       art.ImageURL,
		ImageDeleteID:  art.ImageDeleteID,
		ImagePrompt:    art.ImagePrompt,
	}
	if campaignID != uuid.Nil {
		id := campaignID
		ad.CampaignID = &id
	}
	if t := art.Item.Target; t.Kind == generation.TargetProduct {
		name, idx := t.Name, t.ProductIndex
		ad.ProductName = &name
		ad.ProductIndex = &idx
	}
	ad.SetBreakdown(art.Breakdown)

	export := &models.Export{
		Platform: art.Item.Platform.ID,
		Width:    art.Item.Platform.Width,
		Height:   art.Item.Platform.Height,
		Format:   "png",
		URL:      art.ImageURL,
	}
	return ad, export
}
