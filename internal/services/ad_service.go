package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/platforms"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdService struct {
	ads     AdStore
	brands  BrandStore
	runner  ItemRunner
	host    generation.AssetHost
	remover generation.BackgroundRemover
	ledger  *costs.Ledger
	log     *zap.Logger
}

// NewAdService builds the service. remover may be nil, which disables
// background removal.
func NewAdService(
	ads AdStore,
	brands BrandStore,
	runner ItemRunner,
	host generation.AssetHost,
	remover generation.BackgroundRemover,
	ledger *costs.Ledger,
	log *zap.Logger,
) *AdService {
	return &AdService{
		ads:     ads,
		brands:  brands,
		runner:  runner,
		host:    host,
		remover: remover,
		ledger:  ledger,
		log:     log,
	}
}

func (s *AdService) GetByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	return s.ads.GetByID(ctx, id)
}

func (s *AdService) List(ctx context.Context, f models.AdFilter) ([]models.Ad, error) {
	return s.ads.List(ctx, f)
}

func (s *AdService) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Ad, error) {
	return s.ads.ListByCampaign(ctx, campaignID)
}

func (s *AdService) Exports(ctx context.Context, id uuid.UUID) ([]models.Export, error) {
	return s.ads.ListExports(ctx, id)
}

// Detach removes the ad from its campaign. The ad stays in the global list
// and survives deletion of the campaign.
func (s *AdService) Detach(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	if err := s.ads.Detach(ctx, id); err != nil {
		return nil, err
	}
	return s.ads.GetByID(ctx, id)
}

func (s *AdService) Delete(ctx context.Context, id uuid.UUID) error {
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ads.Delete(ctx, id); err != nil {
		return err
	}
	deleteImage(ctx, s.host, ad, s.log)
	return nil
}

type SingleAdInput struct {
	BrandProfileID uuid.UUID
	Platform       string
	Style          string
	ProductIndex   *int
	Instructions   string
}

// GenerateSingle runs one work item synchronously and stores the result as
// an ad that belongs to no campaign.
func (s *AdService) GenerateSingle(ctx context.Context, in SingleAdInput) (*models.Ad, error) {
	brand, err := s.brands.GetByID(ctx, in.BrandProfileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: brand profile not found", ErrValidation)
		}
		return nil, err
	}
	plat, err := platforms.DimensionsFor(in.Platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	style := in.Style
	if style == "" {
		style = models.StyleModern
	}
	if !models.IsValidStyle(style) {
		return nil, fmt.Errorf("%w: unknown style %q", ErrValidation, style)
	}

	target := generation.Target{Kind: generation.TargetBrand, Name: brand.CompanyName, ProductIndex: -1}
	if in.ProductIndex != nil {
		p := brand.ProductAt(*in.ProductIndex)
		if p == nil {
			return nil, fmt.Errorf("%w: product index %d out of range", ErrValidation, *in.ProductIndex)
		}
		target = generation.Target{Kind: generation.TargetProduct, Name: p.Name, ProductIndex: *in.ProductIndex, Product: p}
	}

	item := generation.WorkItem{Target: target, Platform: plat}
	art, err := s.runner.Run(ctx, item, generation.RunInput{
		Brand:        brand,
		Style:        style,
		Instructions: in.Instructions,
		AdID:         uuid.New(),
	})
	if err != nil {
		return nil, err
	}

	ad, export := buildAd(uuid.Nil, brand.ID, style, art)
	pctx := context.WithoutCancel(ctx)
	if err := s.ads.CreateWithExport(pctx, ad, export); err != nil {
		deleteImage(pctx, s.host, ad, s.log)
		return nil, err
	}
	return ad, nil
}

// RemoveBackground replaces the ad image with a background-free version,
// charges the removal and re-upload, and recalculates the ad cost.
func (s *AdService) RemoveBackground(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	if s.remover == nil {
		return nil, fmt.Errorf("%w: background removal", ErrNotConfigured)
	}
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ad.ImageDeleteID == "" {
		return nil, fmt.Errorf("%w: ad has no hosted image", ErrValidation)
	}

	data, err := s.host.Fetch(ctx, ad.ImageDeleteID)
	if err != nil {
		return nil, fmt.Errorf("fetch ad image: %w", err)
	}
	res, err := s.remover.RemoveBackground(ctx, data)
	if err != nil {
		return nil, err
	}
	s.charge(ctx, costs.Usage{Service: s.remover.Service(), Operation: models.OpBackgroundRemoval, Model: res.Model, Images: 1}, id)

	asset, err := s.host.Upload(ctx, res.Data, fmt.Sprintf("ads/%s/%s-nobg.png", id, ad.Platform), "image/png")
	if err != nil {
		return nil, err
	}
	s.charge(ctx, costs.Usage{Service: s.host.Service(), Operation: models.OpUpload, Requests: 1}, id)

	if err := s.ads.UpdateImage(ctx, id, asset.URL, asset.DeleteID); err != nil {
		return nil, err
	}
	deleteImage(ctx, s.host, ad, s.log)

	return s.RecalculateCost(ctx, id)
}

// RecalculateCost rebuilds the ad's breakdown from its ledger entries.
func (s *AdService) RecalculateCost(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	if _, err := s.ads.GetByID(ctx, id); err != nil {
		return nil, err
	}
	ac, err := s.ledger.CostsForAd(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ads.UpdateCost(ctx, id, ac.Breakdown); err != nil {
		return nil, err
	}
	return s.ads.GetByID(ctx, id)
}

func (s *AdService) Costs(ctx context.Context, id uuid.UUID) (*costs.AdCosts, error) {
	if _, err := s.ads.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.CostsForAd(ctx, id)
}

func (s *AdService) charge(ctx context.Context, u costs.Usage, adID uuid.UUID) {
	if _, err := s.ledger.Charge(context.WithoutCancel(ctx), u, &adID); err != nil {
		s.log.Error("cost ledger write failed, ledger is missing provider spend",
			zap.String("ad_id", adID.String()),
			zap.String("operation", u.Operation),
			zap.Error(err),
		)
	}
}
