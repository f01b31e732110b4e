package models

import (
	"time"

	"github.com/google/uuid"
)

type CostBreakdown struct {
	ImageGeneration   float64 `json:"image_generation"`
	CopyGeneration    float64 `json:"copy_generation"`
	BackgroundRemoval float64 `json:"background_removal"`
	Upload            float64 `json:"upload"`
}

func (b CostBreakdown) Total() float64 {
	return b.ImageGeneration + b.CopyGeneration + b.BackgroundRemoval + b.Upload
}

type Ad struct {
	ID             uuid.UUID     `json:"id"`
	CampaignID     *uuid.UUID    `json:"campaign_id,omitempty"`
	BrandProfileID uuid.UUID     `json:"brand_profile_id"`
	Platform       string        `json:"platform"`
	Style          string        `json:"style"`
	Headline       string        `json:"headline"`
	Body           string        `json:"body"`
	CallToAction   string        `json:"call_to_action"`
	Hashtags       []string      `json:"hashtags"`
	ImageURL       string        `json:"image_url"`
	ImageDeleteID  string        `json:"-"`
	ImagePrompt    string        `json:"image_prompt"`
	ProductName    *string       `json:"product_name,omitempty"`
	ProductIndex   *int          `json:"product_index,omitempty"`
	GenerationCost float64       `json:"generation_cost"`
	CostBreakdown  CostBreakdown `json:"cost_breakdown"`
	CreatedAt      time.Time     `json:"created_at"`
}

// SetBreakdown replaces the breakdown and keeps GenerationCost equal to its sum.
func (a *Ad) SetBreakdown(b CostBreakdown) {
	a.CostBreakdown = b
	a.GenerationCost = b.Total()
}

type Export struct {
	ID        uuid.UUID `json:"id"`
	AdID      uuid.UUID `json:"ad_id"`
	Platform  string    `json:"platform"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type AdFilter struct {
	CampaignID     *uuid.UUID
	BrandProfileID *uuid.UUID
	Platform       *string
	Limit          int
	Offset         int
}
