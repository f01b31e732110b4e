package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Who caused a history entry.
const (
	ActorUser   = "user"
	ActorSystem = "system"
	ActorWorker = "worker"
)

const EntityCampaign = "campaign"

type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	ActorID    *string    `json:"actor_id,omitempty"`
	ActorType  string     `json:"actor_type"`
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Meta       any        `json:"meta,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CampaignEntry is a history entry for a campaign.
func CampaignEntry(id uuid.UUID, action, actor string, meta map[string]any) AuditLog {
	entry := AuditLog{
		ActorType:  actor,
		Action:     action,
		EntityType: EntityCampaign,
		EntityID:   &id,
	}
	if len(meta) > 0 {
		entry.Meta = meta
	}
	return entry
}

// CampaignTransitionEntry records a status change. The action reads
// campaign_status_<from>_to_<to> and meta always carries both statuses.
func CampaignTransitionEntry(id uuid.UUID, from, to, actor string, extra map[string]any) AuditLog {
	meta := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		meta[k] = v
	}
	meta["old_status"] = from
	meta["new_status"] = to
	return CampaignEntry(id, fmt.Sprintf("campaign_status_%s_to_%s", from, to), actor, meta)
}
