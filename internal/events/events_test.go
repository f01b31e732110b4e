package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), StreamCampaign, Event{Type: EventCampaignStatusChanged}))
}

func TestCampaignStatusChanged(t *testing.T) {
	id := uuid.New()
	extra := map[string]any{"ads_created": 3, "new_status": "ignored"}

	e := CampaignStatusChanged(id, "generating", "active", extra)
	assert.Equal(t, EventCampaignStatusChanged, e.Type)
	assert.False(t, e.At.IsZero())
	assert.Equal(t, id.String(), e.Payload["campaign_id"])
	assert.Equal(t, "active", e.Payload["new_status"])
	assert.Equal(t, 3, e.Payload["ads_created"])

	_, leaked := extra["campaign_id"]
	assert.False(t, leaked, "extra must not be mutated")
}
