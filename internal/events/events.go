// Package events carries campaign lifecycle notifications to subscribers.
package events

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Streams
const (
	StreamCampaign = "events:campaign"
)

// Event types
const (
	EventCampaignStatusChanged = "campaign_status_changed"
)

type Event struct {
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload"`
}

// CampaignStatusChanged builds a status event. extra is copied into the
// payload next to the campaign id and both statuses.
func CampaignStatusChanged(id uuid.UUID, from, to string, extra map[string]any) Event {
	payload := make(map[string]any, len(extra)+3)
	maps.Copy(payload, extra)
	payload["campaign_id"] = id.String()
	payload["old_status"] = from
	payload["new_status"] = to
	return Event{Type: EventCampaignStatusChanged, At: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher discards events. It backs deployments without Redis.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
