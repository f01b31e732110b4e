package dto

import (
	"strings"

	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/services"
	"github.com/google/uuid"
)

// Brands

type ProductRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	TargetAudience *string  `json:"target_audience,omitempty"`
	PromotionAngle string   `json:"promotion_angle"`
	Benefits       []string `json:"benefits"`
}

type BrandProfileRequest struct {
	CompanyName         string             `json:"company_name"`
	Industry            string             `json:"industry"`
	WebsiteURL          string             `json:"website_url"`
	LogoURL             *string            `json:"logo_url,omitempty"`
	BrandVoice          string             `json:"brand_voice"`
	VisualStyle         string             `json:"visual_style"`
	Colors              models.BrandColors `json:"colors"`
	TargetAudience      string             `json:"target_audience"`
	UniqueSellingPoints []string           `json:"unique_selling_points"`
	Products            []ProductRequest   `json:"products"`
}

func (r *BrandProfileRequest) ToModel() *models.BrandProfile {
	b := &models.BrandProfile{
		CompanyName:         strings.TrimSpace(r.CompanyName),
		Industry:            strings.TrimSpace(r.Industry),
		WebsiteURL:          strings.TrimSpace(r.WebsiteURL),
		LogoURL:             r.LogoURL,
		BrandVoice:          r.BrandVoice,
		VisualStyle:         r.VisualStyle,
		Colors:              r.Colors,
		TargetAudience:      r.TargetAudience,
		UniqueSellingPoints: r.UniqueSellingPoints,
		Products:            make([]models.Product, 0, len(r.Products)),
	}
	for _, p := range r.Products {
		b.Products = append(b.Products, models.Product{
			Name:           strings.TrimSpace(p.Name),
			Description:    p.Description,
			Features:       p.Features,
			TargetAudience: p.TargetAudience,
			PromotionAngle: p.PromotionAngle,
			Benefits:       p.Benefits,
		})
	}
	return b
}

type AnalyzeBrandRequest struct {
	URL string `json:"url"`
}

// Campaigns

type CreateCampaignRequest struct {
	BrandProfileID     string   `json:"brand_profile_id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Platforms          []string `json:"platforms"`
	Style              string   `json:"style"`
	CustomInstructions *string  `json:"custom_instructions,omitempty"`
	SelectedProducts   []int    `json:"selected_products"`
	IncludeBrandAd     *bool    `json:"include_brand_ad,omitempty"` // defaults to true
}

func (r *CreateCampaignRequest) ToModel(brandID uuid.UUID) *models.Campaign {
	includeBrand := true
	if r.IncludeBrandAd != nil {
		includeBrand = *r.IncludeBrandAd
	}
	return &models.Campaign{
		BrandProfileID:     brandID,
		Name:               strings.TrimSpace(r.Name),
		Description:        r.Description,
		Platforms:          r.Platforms,
		Style:              r.Style,
		CustomInstructions: r.CustomInstructions,
		SelectedProducts:   r.SelectedProducts,
		IncludeBrandAd:     includeBrand,
	}
}

type UpdateCampaignRequest struct {
	Name               *string  `json:"name,omitempty"`
	Description        *string  `json:"description,omitempty"`
	Platforms          []string `json:"platforms,omitempty"`
	Style              *string  `json:"style,omitempty"`
	CustomInstructions *string  `json:"custom_instructions,omitempty"`
	SelectedProducts   []int    `json:"selected_products,omitempty"`
	IncludeBrandAd     *bool    `json:"include_brand_ad,omitempty"`
}

func (r *UpdateCampaignRequest) ToUpdate() services.CampaignUpdate {
	return services.CampaignUpdate{
		Name:               r.Name,
		Description:        r.Description,
		Platforms:          r.Platforms,
		Style:              r.Style,
		CustomInstructions: r.CustomInstructions,
		SelectedProducts:   r.SelectedProducts,
		IncludeBrandAd:     r.IncludeBrandAd,
	}
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

// Ads

type GenerateAdRequest struct {
	BrandProfileID string `json:"brand_profile_id"`
	Platform       string `json:"platform"`
	Style          string `json:"style"`
	ProductIndex   *int   `json:"product_index,omitempty"`
	Instructions   string `json:"instructions"`
}
