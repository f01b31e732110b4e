package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/siteparser"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SiteFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*siteparser.Site, error)
}

type BrandService struct {
	brands    BrandStore
	campaigns CampaignStore
	ads       AdStore
	host      generation.AssetHost
	text      generation.TextModel
	site      SiteFetcher
	ledger    *costs.Ledger
	log       *zap.Logger
}

func NewBrandService(
	brands BrandStore,
	campaigns CampaignStore,
	ads AdStore,
	host generation.AssetHost,
	text generation.TextModel,
	site SiteFetcher,
	ledger *costs.Ledger,
	log *zap.Logger,
) *BrandService {
	return &BrandService{
		brands:    brands,
		campaigns: campaigns,
		ads:       ads,
		host:      host,
		text:      text,
		site:      site,
		ledger:    ledger,
		log:       log,
	}
}

func validateBrand(b *models.BrandProfile) error {
	b.CompanyName = strings.TrimSpace(b.CompanyName)
	if b.CompanyName == "" {
		return fmt.Errorf("%w: company_name is required", ErrValidation)
	}
	for i := range b.Products {
		b.Products[i].Name = strings.TrimSpace(b.Products[i].Name)
		if b.Products[i].Name == "" {
			return fmt.Errorf("%w: product %d needs a name", ErrValidation, i)
		}
	}
	if b.Products == nil {
		b.Products = []models.Product{}
	}
	return nil
}

func (s *BrandService) Create(ctx context.Context, b *models.BrandProfile) error {
	if err := validateBrand(b); err != nil {
		return err
	}
	return s.brands.Create(ctx, b)
}

func (s *BrandService) GetByID(ctx context.Context, id uuid.UUID) (*models.BrandProfile, error) {
	return s.brands.GetByID(ctx, id)
}

func (s *BrandService) List(ctx context.Context, limit, offset int) ([]models.BrandProfile, error) {
	return s.brands.List(ctx, limit, offset)
}

// Update replaces the profile with user corrections.
func (s *BrandService) Update(ctx context.Context, id uuid.UUID, b *models.BrandProfile) error {
	b.ID = id
	if err := validateBrand(b); err != nil {
		return err
	}
	return s.brands.Update(ctx, b)
}

// Delete removes the profile with its campaigns and ads, then deletes the
// ads' hosted images. It refuses while any of the brand's campaigns is
// generating.
func (s *BrandService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.brands.GetByID(ctx, id); err != nil {
		return err
	}

	generating := models.CampaignStatusGenerating
	running, err := s.campaigns.List(ctx, models.CampaignFilter{BrandProfileID: &id, Status: &generating, Limit: 1})
	if err != nil {
		return err
	}
	if len(running) > 0 {
		return fmt.Errorf("%w: campaign %s", ErrCampaignGenerating, running[0].ID)
	}

	var ads []models.Ad
	for offset := 0; ; offset += 100 {
		page, err := s.ads.List(ctx, models.AdFilter{BrandProfileID: &id, Limit: 100, Offset: offset})
		if err != nil {
			return err
		}
		ads = append(ads, page...)
		if len(page) < 100 {
			break
		}
	}

	if err := s.brands.Delete(ctx, id); err != nil {
		return err
	}
	for i := range ads {
		deleteImage(ctx, s.host, &ads[i], s.log)
	}
	return nil
}

const brandAnalysisSystem = `You are a brand strategist. From the website content provided, build a brand profile.
Respond with a JSON object with the keys "company_name", "industry", "brand_voice", "visual_style",
"colors" (object with "primary", "secondary", "accent" as hex strings), "target_audience",
"unique_selling_points" (array of strings) and "products" (array of objects with "name", "description",
"features", "promotion_angle" and "benefits").`

// Analyze extracts a brand profile from a website and stores it.
func (s *BrandService) Analyze(ctx context.Context, rawURL string) (*models.BrandProfile, error) {
	site, err := s.site.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch website: %w", err)
	}

	res, err := s.text.Generate(ctx, generation.TextRequest{
		Operation: models.OpBrandAnalysis,
		System:    brandAnalysisSystem,
		Prompt:    site.Summary(),
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.Charge(context.WithoutCancel(ctx), costs.Usage{
		Service:      s.text.Service(),
		Operation:    models.OpBrandAnalysis,
		Model:        res.Model,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil); err != nil {
		s.log.Error("cost ledger write failed, ledger is missing provider spend",
			zap.String("operation", models.OpBrandAnalysis),
			zap.Error(err),
		)
	}

	obj, ok := generation.ExtractJSON(res.Text)
	if !ok {
		return nil, generation.NewProviderError(s.text.Service(), generation.ErrUnknown, fmt.Errorf("brand analysis returned no JSON"))
	}
	var b models.BrandProfile
	if err := json.Unmarshal([]byte(obj), &b); err != nil {
		return nil, generation.NewProviderError(s.text.Service(), generation.ErrUnknown, fmt.Errorf("decode brand analysis: %w", err))
	}

	b.ID = uuid.Nil
	b.WebsiteURL = site.URL
	if b.CompanyName == "" {
		b.CompanyName = site.Name()
	}
	if b.Colors.Primary == "" {
		b.Colors.Primary = site.ThemeColor
	}
	if b.LogoURL == nil && site.LogoURL != "" {
		logo := site.LogoURL
		b.LogoURL = &logo
	}
	if err := s.Create(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
