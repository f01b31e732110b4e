package models

import (
	"time"

	"github.com/google/uuid"
)

type BrandColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

type Product struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	TargetAudience *string  `json:"target_audience,omitempty"` // overrides the brand audience
	PromotionAngle string   `json:"promotion_angle"`
	Benefits       []string `json:"benefits"`
}

type BrandProfile struct {
	ID                  uuid.UUID   `json:"id"`
	CompanyName         string      `json:"company_name"`
	Industry            string      `json:"industry"`
	WebsiteURL          string      `json:"website_url"`
	LogoURL             *string     `json:"logo_url,omitempty"`
	BrandVoice          string      `json:"brand_voice"`
	VisualStyle         string      `json:"visual_style"`
	Colors              BrandColors `json:"colors"`
	TargetAudience      string      `json:"target_audience"`
	UniqueSellingPoints []string    `json:"unique_selling_points"`
	Products            []Product   `json:"products"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// ProductAt returns the product at index i, or nil when out of range.
func (b *BrandProfile) ProductAt(i int) *Product {
	if i < 0 || i >= len(b.Products) {
		return nil
	}
	return &b.Products[i]
}
