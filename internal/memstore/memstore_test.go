package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) (*models.BrandProfile, *models.Campaign) {
	t.Helper()
	ctx := context.Background()
	b := &models.BrandProfile{CompanyName: "Acme"}
	require.NoError(t, s.Brands().Create(ctx, b))
	c := &models.Campaign{BrandProfileID: b.ID, Name: "Spring", Platforms: []string{"twitter"}, Status: models.CampaignStatusDraft}
	require.NoError(t, s.Campaigns().Create(ctx, c))
	return b, c
}

func addAd(t *testing.T, s *Store, b *models.BrandProfile, campaignID *uuid.UUID) *models.Ad {
	t.Helper()
	ad := &models.Ad{ID: uuid.New(), CampaignID: campaignID, BrandProfileID: b.ID, Platform: "twitter",
		CostBreakdown: models.CostBreakdown{ImageGeneration: 0.04, Upload: 0.00001}}
	require.NoError(t, s.Ads().CreateWithExport(context.Background(), ad, &models.Export{Platform: "twitter", Width: 1200, Height: 675, Format: "png"}))
	return ad
}

func TestCampaignCreateRequiresBrand(t *testing.T) {
	s := New()
	err := s.Campaigns().Create(context.Background(), &models.Campaign{BrandProfileID: uuid.New()})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTransitionStatusIsConditional(t *testing.T) {
	s := New()
	_, c := seed(t, s)
	ctx := context.Background()

	ok, err := s.Campaigns().TransitionStatus(ctx, c.ID, models.CampaignStatusDraft, models.CampaignStatusGenerating)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Campaigns().TransitionStatus(ctx, c.ID, models.CampaignStatusDraft, models.CampaignStatusGenerating)
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Campaigns().Update(ctx, &models.Campaign{ID: c.ID, Name: "x"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestDeleteCampaignCascadesToAds(t *testing.T) {
	s := New()
	b, c := seed(t, s)
	ctx := context.Background()

	owned := addAd(t, s, b, &c.ID)
	detached := addAd(t, s, b, nil)

	require.NoError(t, s.Campaigns().Delete(ctx, c.ID))

	_, err := s.Ads().GetByID(ctx, owned.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.Ads().ListExports(ctx, owned.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := s.Ads().GetByID(ctx, detached.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CampaignID)
}

func TestDetachKeepsAdGlobally(t *testing.T) {
	s := New()
	b, c := seed(t, s)
	ctx := context.Background()
	ad := addAd(t, s, b, &c.ID)

	require.NoError(t, s.Ads().Detach(ctx, ad.ID))

	byCampaign, err := s.Ads().ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, byCampaign)

	all, err := s.Ads().List(ctx, models.AdFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ad.ID, all[0].ID)
}

func TestListByCampaignKeepsCreationOrder(t *testing.T) {
	s := New()
	b, c := seed(t, s)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, addAd(t, s, b, &c.ID).ID)
	}

	ads, err := s.Ads().ListByCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, ads, 5)
	for i, a := range ads {
		assert.Equal(t, ids[i], a.ID)
		assert.InDelta(t, a.CostBreakdown.Total(), a.GenerationCost, 1e-12)
	}
}

func TestListStale(t *testing.T) {
	s := New()
	_, c := seed(t, s)
	ctx := context.Background()
	_, err := s.Campaigns().TransitionStatus(ctx, c.ID, models.CampaignStatusDraft, models.CampaignStatusGenerating)
	require.NoError(t, err)

	stale, err := s.Campaigns().ListStale(ctx, models.CampaignStatusGenerating, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)

	s.Campaigns().SetUpdatedAt(c.ID, time.Now().Add(-time.Hour))
	stale, err = s.Campaigns().ListStale(ctx, models.CampaignStatusGenerating, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, stale, 1)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	s := New()
	_, c := seed(t, s)
	ctx := context.Background()

	got, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.Platforms[0] = "tiktok"

	again, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "twitter", again.Platforms[0])
}
