package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/generation/generationtest"
	"github.com/adstudio/backend/internal/memstore"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOrchestratorPartialFailure(t *testing.T) {
	e := newEnv(t)
	e.image.Err = generationtest.FailSize(1200, 628, generation.NewProviderError("imagen", generation.ErrUnavailable, errors.New("503")))
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "facebook-feed"}, []int{0}, false)
	e.startPass(t, c)

	out, err := e.orchestrator.Run(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 1, out.Succeeded)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "Hammer/facebook-feed", out.Failures[0].Label)
	assert.Equal(t, generation.StageImage, out.Failures[0].Stage)
	assert.Equal(t, models.CampaignStatusActive, out.Status)
	assert.Equal(t, models.CampaignStatusActive, e.status(t, c))

	ads, err := e.store.Ads().ListByCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	ad := ads[0]
	assert.Equal(t, "instagram-feed", ad.Platform)
	require.NotNil(t, ad.ProductName)
	assert.Equal(t, "Hammer", *ad.ProductName)
	assert.Equal(t, "Meet the best", ad.Headline)
	assert.True(t, e.host.Has(ad.ImageURL))

	exports, err := e.store.Ads().ListExports(context.Background(), ad.ID)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, 1080, exports[0].Width)
	assert.Equal(t, 1080, exports[0].Height)
	assert.Equal(t, ad.ImageURL, exports[0].URL)

	assert.Equal(t, []string{models.CampaignStatusActive}, e.publisher.statuses())

	history, err := e.store.History().CampaignHistory(context.Background(), c.ID, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	last := history[0]
	assert.Equal(t, "campaign_status_generating_to_active", last.Action)
	assert.Equal(t, models.ActorSystem, last.ActorType)
	assert.Equal(t, map[string]any{
		"old_status":   models.CampaignStatusGenerating,
		"new_status":   models.CampaignStatusActive,
		"items":        2,
		"ads_created":  1,
		"items_failed": 1,
	}, last.Meta)
}

func TestOrchestratorAllItemsFail(t *testing.T) {
	e := newEnv(t)
	e.image.Err = func(generation.ImageRequest) error {
		return generation.NewProviderError("imagen", generation.ErrPolicyRejected, errors.New("filtered"))
	}
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "twitter"}, []int{0, 1}, true)
	e.startPass(t, c)

	out, err := e.orchestrator.Run(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Equal(t, 6, out.Total)
	assert.Zero(t, out.Succeeded)
	assert.Len(t, out.Failures, 6)
	assert.Equal(t, models.CampaignStatusDraft, e.status(t, c))

	ads, err := e.store.Ads().ListByCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, ads)

	// Prompt synthesis was still paid for on every item.
	sum, err := e.ledger.Summary(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.ByService["gemini"].Count)
}

// delayRunner finishes later items first.
type delayRunner struct {
	inner services.ItemRunner
	total int
}

func (r *delayRunner) Run(ctx context.Context, item generation.WorkItem, in generation.RunInput) (*generation.Artifact, error) {
	time.Sleep(time.Duration(r.total-item.Index) * 5 * time.Millisecond)
	return r.inner.Run(ctx, item, in)
}

func TestOrchestratorCommitsInMatrixOrder(t *testing.T) {
	e := newEnv(t,
		withConcurrency(4),
		withRunner(func(p *generation.Pipeline) services.ItemRunner { return &delayRunner{inner: p, total: 6} }),
	)
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "linkedin", "tiktok"}, []int{1}, true)
	e.startPass(t, c)

	out, err := e.orchestrator.Run(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 6, out.Succeeded)

	ads, err := e.store.Ads().ListByCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, ads, 6)

	var got []string
	for _, a := range ads {
		name := "Acme"
		if a.ProductName != nil {
			name = *a.ProductName
		}
		got = append(got, name+"/"+a.Platform)
	}
	assert.Equal(t, []string{
		"Acme/instagram-feed", "Acme/linkedin", "Acme/tiktok",
		"Saw/instagram-feed", "Saw/linkedin", "Saw/tiktok",
	}, got)
}

type panicRunner struct {
	inner services.ItemRunner
	index int
}

func (r *panicRunner) Run(ctx context.Context, item generation.WorkItem, in generation.RunInput) (*generation.Artifact, error) {
	if item.Index == r.index {
		panic("boom")
	}
	return r.inner.Run(ctx, item, in)
}

func TestOrchestratorItemPanicBecomesFailure(t *testing.T) {
	e := newEnv(t,
		withConcurrency(2),
		withRunner(func(p *generation.Pipeline) services.ItemRunner { return &panicRunner{inner: p, index: 0} }),
	)
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "pinterest"}, []int{0}, false)
	e.startPass(t, c)

	out, err := e.orchestrator.Run(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Succeeded)
	require.Len(t, out.Failures, 1)
	assert.Contains(t, out.Failures[0].Error, "panicked")
	assert.Equal(t, models.CampaignStatusActive, e.status(t, c))
}

// panickyBrands panics when the pass loads the brand profile.
type panickyBrands struct {
	*memstore.BrandRepo
}

func (panickyBrands) GetByID(context.Context, uuid.UUID) (*models.BrandProfile, error) {
	panic("brand store exploded")
}

func TestOrchestratorPanicStillResolvesStatus(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed"}, []int{0}, false)
	e.startPass(t, c)

	orch := services.NewOrchestrator(
		e.store.Campaigns(), panickyBrands{e.store.Brands()}, e.store.Ads(), e.store.History(),
		e.host, e.pipeline, e.publisher, 1, zap.NewNop(),
	)
	out, err := orch.Run(context.Background(), c.ID)
	require.Error(t, err)
	assert.Equal(t, models.CampaignStatusDraft, out.Status)
	assert.Equal(t, models.CampaignStatusDraft, e.status(t, c))
}

func TestOrchestratorCancelledPassResolves(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "twitter"}, []int{0}, false)
	e.startPass(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := e.orchestrator.Run(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, out.Succeeded)
	assert.Empty(t, e.text.Calls())
	assert.Equal(t, models.CampaignStatusDraft, e.status(t, c))
}

func TestOrchestratorPersistFailureDeletesImage(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "twitter"}, nil, true)
	e.startPass(t, c)
	e.store.FailAdWrites = errors.New("disk full")

	out, err := e.orchestrator.Run(context.Background(), c.ID)
	require.NoError(t, err)

	require.Len(t, out.Failures, 2)
	for _, f := range out.Failures {
		assert.Equal(t, services.StagePersist, f.Stage)
	}
	assert.Len(t, e.host.Deleted(), 2)
	assert.Zero(t, e.host.Objects())
	assert.Equal(t, models.CampaignStatusDraft, e.status(t, c))
}

func TestOrchestratorCostsAgreeWithLedger(t *testing.T) {
	e := newEnv(t)
	b := e.brand(t)
	c := e.campaign(t, b.ID, []string{"instagram-feed", "facebook-feed"}, []int{0, 1}, false)
	e.startPass(t, c)

	_, err := e.orchestrator.Run(context.Background(), c.ID)
	require.NoError(t, err)

	cc, err := e.ledger.CostsForCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, cc.AdCount)

	sum, err := e.ledger.Summary(context.Background(), nil)
	require.NoError(t, err)
	assert.InDelta(t, sum.TotalCost, cc.Total, 1e-9)

	for _, line := range cc.Ads {
		ac, err := e.ledger.CostsForAd(context.Background(), line.AdID)
		require.NoError(t, err)
		assert.InDelta(t, ac.Total, line.Cost, 1e-9)
		assert.Greater(t, line.Breakdown.ImageGeneration, 0.0)
		assert.Greater(t, line.Breakdown.CopyGeneration, 0.0)
		assert.Greater(t, line.Breakdown.Upload, 0.0)
	}
}
