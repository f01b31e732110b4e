package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/events"
	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/generation/generationtest"
	"github.com/adstudio/backend/internal/memstore"
	"github.com/adstudio/backend/internal/models"
	"github.com/adstudio/backend/internal/services"
	"github.com/adstudio/backend/internal/siteparser"
	"github.com/adstudio/backend/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// queue holds submitted tasks until the test runs them.
type queue struct {
	Err error

	mu    sync.Mutex
	tasks []worker.Task
}

func (q *queue) Submit(t worker.Task) error {
	if q.Err != nil {
		return q.Err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return nil
}

func (q *queue) drain(t *testing.T) {
	t.Helper()
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, task := range tasks {
		require.NoError(t, task.Run(context.Background()), task.Name)
	}
}

// abandon runs the drop hooks of queued tasks, as a pool shutting down would.
func (q *queue) abandon() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, task := range tasks {
		if task.OnDrop != nil {
			task.OnDrop(context.Background())
		}
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if s, ok := e.Payload["new_status"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

type stubSite struct {
	site *siteparser.Site
	err  error
}

func (s *stubSite) Fetch(ctx context.Context, rawURL string) (*siteparser.Site, error) {
	return s.site, s.err
}

type env struct {
	store     *memstore.Store
	text      *generationtest.TextModel
	image     *generationtest.ImageModel
	host      *generationtest.AssetHost
	remover   *generationtest.BackgroundRemover
	ledger    *costs.Ledger
	pipeline  *generation.Pipeline
	publisher *recordingPublisher
	queue     *queue
	site      *stubSite

	orchestrator *services.Orchestrator
	campaigns    *services.CampaignService
	ads          *services.AdService
	brands       *services.BrandService
}

type envOption func(*envConfig)

type envConfig struct {
	concurrency int
	runner      func(*generation.Pipeline) services.ItemRunner
}

func withConcurrency(n int) envOption { return func(c *envConfig) { c.concurrency = n } }

func withRunner(fn func(*generation.Pipeline) services.ItemRunner) envOption {
	return func(c *envConfig) { c.runner = fn }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	cfg := envConfig{concurrency: 1}
	for _, o := range opts {
		o(&cfg)
	}

	log := zap.NewNop()
	e := &env{
		store:     memstore.New(),
		text:      &generationtest.TextModel{},
		image:     &generationtest.ImageModel{},
		host:      &generationtest.AssetHost{},
		remover:   &generationtest.BackgroundRemover{},
		publisher: &recordingPublisher{},
		queue:     &queue{},
		site:      &stubSite{},
	}
	e.ledger = costs.NewLedger(e.store.Costs(), e.store.Ads(), costs.DefaultPricing(), log)
	e.pipeline = generation.NewPipeline(e.text, e.image, e.host, e.ledger, generation.DefaultStageTimeouts(), generation.PollPolicy{}, log)

	var runner services.ItemRunner = e.pipeline
	if cfg.runner != nil {
		runner = cfg.runner(e.pipeline)
	}

	e.orchestrator = services.NewOrchestrator(
		e.store.Campaigns(), e.store.Brands(), e.store.Ads(), e.store.History(),
		e.host, runner, e.publisher, cfg.concurrency, log,
	)
	e.campaigns = services.NewCampaignService(
		e.store.Campaigns(), e.store.Brands(), e.store.Ads(), e.store.History(),
		e.host, e.orchestrator, e.queue, e.publisher, 30*time.Minute, log,
	)
	e.ads = services.NewAdService(e.store.Ads(), e.store.Brands(), runner, e.host, e.remover, e.ledger, log)
	e.brands = services.NewBrandService(e.store.Brands(), e.store.Campaigns(), e.store.Ads(), e.host, e.text, e.site, e.ledger, log)
	return e
}

func (e *env) brand(t *testing.T) *models.BrandProfile {
	t.Helper()
	b := &models.BrandProfile{
		CompanyName:         "Acme",
		Industry:            "Hardware",
		BrandVoice:          "confident",
		TargetAudience:      "makers",
		UniqueSellingPoints: []string{"Lifetime warranty"},
		Products: []models.Product{
			{Name: "Hammer", Description: "Forged steel hammer", PromotionAngle: "Built to last"},
			{Name: "Saw", Description: "Japanese pull saw"},
		},
	}
	require.NoError(t, e.brands.Create(context.Background(), b))
	return b
}

func (e *env) campaign(t *testing.T, brandID uuid.UUID, platformIDs []string, products []int, brandAd bool) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		BrandProfileID:   brandID,
		Name:             "Spring launch",
		Platforms:        platformIDs,
		SelectedProducts: products,
		IncludeBrandAd:   brandAd,
	}
	require.NoError(t, e.campaigns.Create(context.Background(), c))
	return c
}

// startPass moves the campaign to generating without scheduling anything,
// so tests can drive the orchestrator directly.
func (e *env) startPass(t *testing.T, c *models.Campaign) {
	t.Helper()
	ok, err := e.store.Campaigns().TransitionStatus(context.Background(), c.ID, models.CampaignStatusDraft, models.CampaignStatusGenerating)
	require.NoError(t, err)
	require.True(t, ok)
}

func (e *env) status(t *testing.T, c *models.Campaign) string {
	t.Helper()
	got, err := e.store.Campaigns().GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	return got.Status
}
