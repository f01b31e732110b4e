package services

import (
	"context"

	"github.com/adstudio/backend/internal/events"
	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recordHistory appends an entry. A failed write is logged, never returned.
func recordHistory(ctx context.Context, history CampaignHistory, log *zap.Logger, entry models.AuditLog) {
	if err := history.Record(ctx, entry); err != nil {
		log.Warn("recording campaign history failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// logCampaignTransition records a completed status change and announces it
// on the campaign stream. extra is copied into both.
func logCampaignTransition(
	ctx context.Context,
	history CampaignHistory,
	publisher events.Publisher,
	log *zap.Logger,
	id uuid.UUID,
	from, to, actor string,
	extra map[string]any,
) {
	recordHistory(ctx, history, log, models.CampaignTransitionEntry(id, from, to, actor, extra))

	event := events.CampaignStatusChanged(id, from, to, extra)
	if err := publisher.Publish(ctx, events.StreamCampaign, event); err != nil {
		log.Warn("publishing status event failed", zap.String("campaign_id", id.String()), zap.Error(err))
	}
}
