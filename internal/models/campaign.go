package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses
const (
	CampaignStatusDraft      = "draft"
	CampaignStatusGenerating = "generating"
	CampaignStatusActive     = "active"
	CampaignStatusCompleted  = "completed"
	CampaignStatusArchived   = "archived"
)

// Valid state transitions: from -> []to
var ValidCampaignTransitions = map[string][]string{
	CampaignStatusDraft:      {CampaignStatusGenerating, CampaignStatusArchived},
	CampaignStatusGenerating: {CampaignStatusActive, CampaignStatusDraft},
	CampaignStatusActive:     {CampaignStatusCompleted, CampaignStatusArchived},
	CampaignStatusCompleted:  {CampaignStatusArchived},
	CampaignStatusArchived:   {},
}

// UserSettableStatuses are the targets a client may request directly.
// Generating and its resolution are owned by the orchestrator.
var UserSettableStatuses = map[string]bool{
	CampaignStatusCompleted: true,
	CampaignStatusArchived:  true,
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidCampaignTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Campaign struct {
	ID                 uuid.UUID `json:"id"`
	BrandProfileID     uuid.UUID `json:"brand_profile_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Platforms          []string  `json:"platforms"`
	Style              string    `json:"style"`
	CustomInstructions *string   `json:"custom_instructions,omitempty"`
	SelectedProducts   []int     `json:"selected_products"`
	IncludeBrandAd     bool      `json:"include_brand_ad"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Instructions returns the custom instructions or an empty string.
func (c *Campaign) Instructions() string {
	if c.CustomInstructions == nil {
		return ""
	}
	return *c.CustomInstructions
}

type CampaignFilter struct {
	BrandProfileID *uuid.UUID
	Status         *string
	Limit          int
	Offset         int
}

// Ad styles offered by the generator.
const (
	StyleModern     = "modern"
	StyleMinimalist = "minimalist"
	StyleBold       = "bold"
	StylePlayful    = "playful"
	StyleLuxury     = "luxury"
	StyleVintage    = "vintage"
)

var Styles = []string{StyleModern, StyleMinimalist, StyleBold, StylePlayful, StyleLuxury, StyleVintage}

func IsValidStyle(s string) bool {
	for _, v := range Styles {
		if v == s {
			return true
		}
	}
	return false
}
