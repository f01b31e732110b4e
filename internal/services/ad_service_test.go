package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerateSingleAd(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	idx := 1

	ad, err := e.ads.GenerateSingle(context.Background(), services.SingleAdInput{
		BrandProfileID: b.ID,
		Platform:       "pinterest",
		Style:          models.StyleLuxury,
		ProductIndex:   &idx,
	})
	require.NoError(t, err)

	assert.Nil(t, ad.CampaignID)
	assert.Equal(t, "pinterest", ad.Platform)
	assert.Equal(t, models.StyleLuxury, ad.Style)
	require.NotNil(t, ad.ProductName)
	assert.Equal(t, "Saw", *ad.ProductName)
	assert.True(t, e.host.Has(ad.ImageURL))

	exports, err := e.ads.Exports(context.Background(), ad.ID)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, 1000, exports[0].Width)
	assert.Equal(t, 1500, exports[0].Height)

	ac, err := e.ads.Costs(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.InDelta(t, ac.Total, ad.GenerationCost, 1e-9)
	assert.Len(t, ac.Entries, 4)
}

func TestGenerateSingleAdValidation(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	bad := 7

	_, err := e.ads.GenerateSingle(context.Background(), services.SingleAdInput{BrandProfileID: b.ID, Platform: "myspace"})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = e.ads.GenerateSingle(context.Background(), services.SingleAdInput{BrandProfileID: b.ID, Platform: "twitter", ProductIndex: &bad})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = e.ads.GenerateSingle(context.Background(), services.SingleAdInput{BrandProfileID: b.ID, Platform: "twitter", Style: "grunge"})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Empty(t, e.text.Calls())
}

func TestRemoveBackground(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	ad, err := e.ads.GenerateSingle(context.Background(), services.SingleAdInput{BrandProfileID: b.ID, Platform: "twitter"})
	require.NoError(t, err)
	oldKey := ad.ImageDeleteID

	got, err := e.ads.RemoveBackground(context.Background(), ad.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(got.ImageURL, "-nobg.png"))
	assert.True(t, e.host.Has(got.ImageURL))
	assert.Contains(t, e.host.Deleted(), oldKey)

	pricing := costs.DefaultPricing()
	removal, _ := pricing.Amount(costs.Usage{Service: "replicate", Operation: models.OpBackgroundRemoval, Images: 1})
	upload, _ := pricing.Amount(costs.Usage{Service: "s3", Operation: models.OpUpload, Requests: 1})
	assert.InDelta(t, removal, got.CostBreakdown.BackgroundRemoval, 1e-12)
	assert.InDelta(t, 2*upload, got.CostBreakdown.Upload, 1e-12)
	assert.InDelta(t, ad.GenerationCost+removal+upload, got.GenerationCost, 1e-9)

	exports, err := e.ads.Exports(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ImageURL, exports[0].URL)
}

func TestRemoveBackgroundNotConfigured(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	ad, err := e.ads.GenerateSingle(context.Background(), services.SingleAdInput{BrandProfileID: b.ID, Platform: "twitter"})
	require.NoError(t, err)

	svc := services.NewAdService(e.store.Ads(), e.store.Brands(), e.pipeline, e.host, nil, e.ledger, zap.NewNop())
	_, err = svc.RemoveBackground(context.Background(), ad.ID)
	assert.ErrorIs(t, err, services.ErrNotConfigured)
}

func TestRecalculateCost(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	ad, err := e.ads.GenerateSingle(context.Background(), services.SingleAdInput{BrandProfileID: b.ID, Platform: "twitter"})
	require.NoError(t, err)

	_, err = e.ledger.Record(context.Background(), "imagen", models.OpImageGeneration, 0.5, nil, &ad.ID)
	require.NoError(t, err)

	got, err := e.ads.RecalculateCost(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.InDelta(t, ad.GenerationCost+0.5, got.GenerationCost, 1e-9)
	assert.InDelta(t, ad.CostBreakdown.ImageGeneration+0.5, got.CostBreakdown.ImageGeneration, 1e-9)
}

func TestDetachedAdSurvivesCampaignDelete(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "twitter"}, []int{0}, false)
	_, err := e.campaigns.Generate(context.Background(), c.ID)
	require.NoError(t, err)
	e.queue.drain(t)

	ads, err := e.ads.ListByCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, ads, 2)

	detached, err := e.ads.Detach(context.Background(), ads[0].ID)
	require.NoError(t, err)
	assert.Nil(t, detached.CampaignID)

	require.NoError(t, e.campaigns.Delete(context.Background(), c.ID))

	kept, err := e.ads.GetByID(context.Background(), ads[0].ID)
	require.NoError(t, err)
	assert.True(t, e.host.Has(kept.ImageURL))

	_, err = e.ads.GetByID(context.Background(), ads[1].ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteAdRemovesImage(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	ad, err := e.ads.GenerateSingle(context.Background(), services.SingleAdInput{BrandProfileID: b.ID, Platform: "linkedin"})
	require.NoError(t, err)

	require.NoError(t, e.ads.Delete(context.Background(), ad.ID))
	assert.False(t, e.host.Has(ad.ImageURL))
	_, err = e.ads.Exports(context.Background(), ad.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
