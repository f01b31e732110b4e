package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/adstudio/backend/internal/events"
	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/platforms"
	"github.com/adstudio/backend/internal/worker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Submitter accepts background tasks without blocking.
type Submitter interface {
	Submit(t worker.Task) error
}

type CampaignService struct {
	campaigns    CampaignStore
	brands       BrandStore
	ads          AdStore
	history      CampaignHistory
	host         generation.AssetHost
	orchestrator *Orchestrator
	pool         Submitter
	publisher    events.Publisher
	staleTTL     time.Duration
	log          *zap.Logger
}

func NewCampaignService(
	campaigns CampaignStore,
	brands BrandStore,
	ads AdStore,
	history CampaignHistory,
	host generation.AssetHost,
	orchestrator *Orchestrator,
	pool Submitter,
	publisher events.Publisher,
	staleTTL time.Duration,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaigns:    campaigns,
		brands:       brands,
		ads:          ads,
		history:      history,
		host:         host,
		orchestrator: orchestrator,
		pool:         pool,
		publisher:    publisher,
		staleTTL:     staleTTL,
		log:          log,
	}
}

func (s *CampaignService) Create(ctx context.Context, c *models.Campaign) error {
	brand, err := s.brands.GetByID(ctx, c.BrandProfileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: brand profile not found", ErrValidation)
		}
		return err
	}
	if err := validateCampaign(c, brand); err != nil {
		return err
	}
	c.Status = models.CampaignStatusDraft

	if err := s.campaigns.Create(ctx, c); err != nil {
		return err
	}

	recordHistory(ctx, s.history, s.log, models.CampaignEntry(c.ID, "campaign_created", models.ActorUser, nil))
	return nil
}

func validateCampaign(c *models.Campaign, brand *models.BrandProfile) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.Style == "" {
		c.Style = models.StyleModern
	}
	if !models.IsValidStyle(c.Style) {
		return fmt.Errorf("%w: unknown style %q", ErrValidation, c.Style)
	}
	c.Platforms = platforms.Validate(c.Platforms)
	if len(c.Platforms) == 0 {
		return fmt.Errorf("%w: at least one known platform is required", ErrValidation)
	}
	selected := make([]int, 0, len(c.SelectedProducts))
	for _, idx := range c.SelectedProducts {
		if brand.ProductAt(idx) == nil {
			return fmt.Errorf("%w: product index %d out of range", ErrValidation, idx)
		}
		if !slices.Contains(selected, idx) {
			selected = append(selected, idx)
		}
	}
	c.SelectedProducts = selected
	return nil
}

func (s *CampaignService) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.campaigns.GetByID(ctx, id)
}

func (s *CampaignService) List(ctx context.Context, f models.CampaignFilter) ([]models.Campaign, error) {
	return s.campaigns.List(ctx, f)
}

// CampaignUpdate carries the editable fields; nil means unchanged.
type CampaignUpdate struct {
	Name               *string
	Description        *string
	Platforms          []string
	Style              *string
	CustomInstructions *string
	SelectedProducts   []int
	IncludeBrandAd     *bool
}

func (s *CampaignService) Update(ctx context.Context, id uuid.UUID, u CampaignUpdate) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignStatusGenerating {
		return nil, ErrCampaignGenerating
	}
	brand, err := s.brands.GetByID(ctx, c.BrandProfileID)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Platforms != nil {
		c.Platforms = u.Platforms
	}
	if u.Style != nil {
		c.Style = *u.Style
	}
	if u.CustomInstructions != nil {
		c.CustomInstructions = u.CustomInstructions
	}
	if u.SelectedProducts != nil {
		c.SelectedProducts = u.SelectedProducts
	}
	if u.IncludeBrandAd != nil {
		c.IncludeBrandAd = *u.IncludeBrandAd
	}
	if err := validateCampaign(c, brand); err != nil {
		return nil, err
	}

	if err := s.campaigns.Update(ctx, c); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrCampaignGenerating
		}
		return nil, err
	}
	return c, nil
}

// Delete removes the campaign and its ads, then deletes their hosted images.
// Image deletion is best effort.
func (s *CampaignService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Status == models.CampaignStatusGenerating {
		return ErrCampaignGenerating
	}
	ads, err := s.ads.ListByCampaign(ctx, id)
	if err != nil {
		return err
	}
	if err := s.campaigns.Delete(ctx, id); err != nil {
		return err
	}

	for _, ad := range ads {
		deleteImage(ctx, s.host, &ad, s.log)
	}

	recordHistory(ctx, s.history, s.log, models.CampaignEntry(id, "campaign_deleted", models.ActorUser, map[string]any{"ads_deleted": len(ads)}))
	return nil
}

// SetStatus applies a user requested transition. Only completed and
// archived may be requested directly.
func (s *CampaignService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Campaign, error) {
	if !models.UserSettableStatuses[status] {
		return nil, fmt.Errorf("%w: %q cannot be set directly", ErrInvalidTransition, status)
	}
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, c, status, models.ActorUser); err != nil {
		return nil, err
	}
	return c, nil
}

// transition validates and performs a status transition, then records it.
func (s *CampaignService) transition(ctx context.Context, c *models.Campaign, newStatus, actorType string) error {
	if !models.IsValidTransition(c.Status, newStatus) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, c.Status, newStatus)
	}

	oldStatus := c.Status
	ok, err := s.campaigns.TransitionStatus(ctx, c.ID, oldStatus, newStatus)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: campaign status changed concurrently", models.ErrConflict)
	}
	c.Status = newStatus

	logCampaignTransition(ctx, s.history, s.publisher, s.log, c.ID, oldStatus, newStatus, actorType, nil)
	return nil
}

type GenerationAck struct {
	CampaignID  uuid.UUID `json:"campaign_id"`
	Status      string    `json:"status"`
	Platforms   []string  `json:"platforms"`
	ExpectedAds int       `json:"expected_ads"`
}

// Generate validates the campaign, moves it to generating and hands the
// pass to the background pool. It returns before any provider is called.
func (s *CampaignService) Generate(ctx context.Context, id uuid.UUID) (*GenerationAck, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignStatusGenerating {
		return nil, ErrCampaignGenerating
	}
	if !models.IsValidTransition(c.Status, models.CampaignStatusGenerating) {
		return nil, fmt.Errorf("%w: cannot generate a campaign in %s", ErrInvalidTransition, c.Status)
	}
	brand, err := s.brands.GetByID(ctx, c.BrandProfileID)
	if err != nil {
		return nil, err
	}
	items := generation.Expand(c, brand)
	if len(items) == 0 {
		return nil, ErrNothingToGenerate
	}

	if err := s.transition(ctx, c, models.CampaignStatusGenerating, models.ActorUser); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrCampaignGenerating
		}
		return nil, err
	}

	err = s.pool.Submit(worker.Task{
		Name: "generate_campaign:" + id.String(),
		Run: func(ctx context.Context) error {
			_, err := s.orchestrator.Run(ctx, id)
			return err
		},
		OnDrop: func(ctx context.Context) {
			s.releaseUnstarted(ctx, id)
		},
	})
	if err != nil {
		s.log.Error("submitting generation pass failed", zap.String("campaign_id", id.String()), zap.Error(err))
		if rerr := s.transition(context.WithoutCancel(ctx), c, models.CampaignStatusDraft, models.ActorSystem); rerr != nil {
			s.log.Error("reverting campaign to draft failed", zap.String("campaign_id", id.String()), zap.Error(rerr))
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueFull, err)
	}

	return &GenerationAck{
		CampaignID:  id,
		Status:      models.CampaignStatusGenerating,
		Platforms:   itemPlatforms(items),
		ExpectedAds: len(items),
	}, nil
}

func itemPlatforms(items []generation.WorkItem) []string {
	var out []string
	seen := map[string]bool{}
	for _, it := range items {
		if !seen[it.Platform.ID] {
			seen[it.Platform.ID] = true
			out = append(out, it.Platform.ID)
		}
	}
	return out
}

// releaseUnstarted returns a campaign whose pass never started to draft.
func (s *CampaignService) releaseUnstarted(ctx context.Context, id uuid.UUID) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		s.log.Error("loading dropped campaign failed", zap.String("campaign_id", id.String()), zap.Error(err))
		return
	}
	if c.Status != models.CampaignStatusGenerating {
		return
	}
	if err := s.transition(ctx, c, models.CampaignStatusDraft, models.ActorSystem); err != nil {
		s.log.Error("releasing dropped campaign failed", zap.String("campaign_id", id.String()), zap.Error(err))
		return
	}
	s.log.Warn("generation pass dropped before start, campaign back to draft", zap.String("campaign_id", id.String()))
}

// ReconcileStale returns campaigns stuck in generating to draft. A campaign
// is stuck when its heartbeat is older than the stale TTL.
func (s *CampaignService) ReconcileStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleTTL)
	stale, err := s.campaigns.ListStale(ctx, models.CampaignStatusGenerating, cutoff)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range stale {
		c := &stale[i]
		s.log.Warn("resetting stale generating campaign",
			zap.String("campaign_id", c.ID.String()),
			zap.Time("updated_at", c.UpdatedAt),
		)
		if err := s.transition(ctx, c, models.CampaignStatusDraft, models.ActorWorker); err != nil {
			s.log.Error("resetting stale campaign failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

func (s *CampaignService) History(ctx context.Context, id uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	if _, err := s.campaigns.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.history.CampaignHistory(ctx, id, limit, offset)
}

func deleteImage(ctx context.Context, host generation.AssetHost, ad *models.Ad, log *zap.Logger) {
	if ad.ImageDeleteID == "" {
		return
	}
	if err := host.Delete(ctx, ad.ImageDeleteID); err != nil {
		log.Warn("deleting hosted image failed",
			zap.String("ad_id", ad.ID.String()),
			zap.Error(err),
		)
	}
}
