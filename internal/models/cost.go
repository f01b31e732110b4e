package models

import (
	"time"

	"github.com/google/uuid"
)

// Cost operations. Each maps onto one CostBreakdown field.
const (
	OpPromptSynthesis   = "prompt_synthesis"
	OpImageGeneration   = "image_generation"
	OpCopyGeneration    = "copy_generation"
	OpBackgroundRemoval = "background_removal"
	OpUpload            = "upload"
	OpBrandAnalysis     = "brand_analysis"
)

// CostEntry is an append-only ledger row. AdID is a plain reference so that
// entries charged for a failed item keep the id they were booked under.
type CostEntry struct {
	ID        uuid.UUID      `json:"id"`
	Service   string         `json:"service"`
	Operation string         `json:"operation"`
	Amount    float64        `json:"amount"`
	Detail    map[string]any `json:"detail,omitempty"`
	AdID      *uuid.UUID     `json:"ad_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
