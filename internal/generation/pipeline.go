package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adstudio/backend/internal/costs"
	"github.com/adstudio/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Charger books provider spend against an ad id.
type Charger interface {
	Charge(ctx context.Context, u costs.Usage, adID *uuid.UUID) (float64, error)
}

type StageTimeouts struct {
	Prompt time.Duration
	Image  time.Duration
	Upload time.Duration
	Copy   time.Duration
}

func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Prompt: 60 * time.Second,
		Image:  3 * time.Minute,
		Upload: time.Minute,
		Copy:   60 * time.Second,
	}
}

type Pipeline struct {
	text     TextModel
	image    ImageModel
	host     AssetHost
	ledger   Charger
	timeouts StageTimeouts
	poll     PollPolicy
	log      *zap.Logger
}

func NewPipeline(text TextModel, image ImageModel, host AssetHost, ledger Charger, timeouts StageTimeouts, poll PollPolicy, log *zap.Logger) *Pipeline {
	return &Pipeline{
		text:     text,
		image:    image,
		host:     host,
		ledger:   ledger,
		timeouts: timeouts,
		poll:     poll,
		log:      log,
	}
}

type RunInput struct {
	Brand        *models.BrandProfile
	Style        string
	Instructions string
	AdID         uuid.UUID // pre-allocated; ledger entries are booked under it
}

// Artifact is everything a successful item produced.
type Artifact struct {
	AdID          uuid.UUID
	Item          WorkItem
	ImagePrompt   string
	ImageURL      string
	ImageDeleteID string
	Copy          AdCopy
	CopyFallback  bool
	Breakdown     models.CostBreakdown
}

// Run drives one work item through prompt synthesis, image synthesis,
// hosting and copy synthesis. A failure in the first three stages returns a
// *StageError; copy failures fall back to template copy. Spend is charged
// per stage as soon as the stage's provider call returns.
func (p *Pipeline) Run(ctx context.Context, item WorkItem, in RunInput) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StagePrompt, Cause: err}
	}

	ac := EffectiveContext(in.Brand, item.Target)
	art := &Artifact{AdID: in.AdID, Item: item}
	log := p.log.With(zap.String("ad_id", in.AdID.String()), zap.String("item", item.Label()))

	// 1. Prompt synthesis
	prompt, err := p.synthesizePrompt(ctx, ac, item, in, &art.Breakdown)
	if err != nil {
		return nil, &StageError{Stage: StagePrompt, Cause: err}
	}
	art.ImagePrompt = prompt

	// 2. Image synthesis
	img, err := p.renderImage(ctx, prompt, item, in, &art.Breakdown)
	if err != nil {
		return nil, &StageError{Stage: StageImage, Cause: err}
	}

	// 3. Hosting
	asset, err := p.upload(ctx, img, item, in, &art.Breakdown)
	if err != nil {
		return nil, &StageError{Stage: StageUpload, Cause: err}
	}
	art.ImageURL = asset.URL
	art.ImageDeleteID = asset.DeleteID

	// 4. Copy synthesis
	cp, err := p.writeCopy(ctx, ac, item, in, &art.Breakdown)
	if err != nil {
		log.Warn("copy synthesis failed, using template copy", zap.Error(err))
		fb := FallbackCopy(ac)
		cp = &fb
		art.CopyFallback = true
	}
	art.Copy = *cp

	return art, nil
}

func (p *Pipeline) synthesizePrompt(ctx context.Context, ac AdContext, item WorkItem, in RunInput, b *models.CostBreakdown) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, p.timeouts.Prompt)
	defer cancel()

	res, err := p.text.Generate(sctx, TextRequest{
		Operation: models.OpPromptSynthesis,
		System:    imagePromptSystem,
		Prompt:    imagePromptRequest(ac, item, in.Style, in.Instructions),
	})
	if err != nil {
		return "", err
	}
	p.chargeTokens(ctx, models.OpPromptSynthesis, res, in.AdID, b)

	prompt := strings.TrimSpace(res.Text)
	if prompt == "" {
		return "", NewProviderError(p.text.Service(), ErrUnknown, fmt.Errorf("empty image prompt"))
	}
	return prompt, nil
}

func (p *Pipeline) renderImage(ctx context.Context, prompt string, item WorkItem, in RunInput, b *models.CostBreakdown) (*ImageResult, error) {
	timeout := p.timeouts.Image
	if budget := p.poll.Budget(); budget > timeout {
		timeout = budget
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	size := Normalize(item.Platform.Width, item.Platform.Height, p.image.Constraints())
	req := ImageRequest{
		Prompt:      prompt,
		Width:       size.Width,
		Height:      size.Height,
		AspectRatio: size.AspectRatio,
		Poll:        p.poll,
	}
	if in.Brand.LogoURL != nil {
		req.ReferenceURL = *in.Brand.LogoURL
	}

	img, err := p.image.Generate(sctx, req)
	if err != nil {
		return nil, err
	}
	amount := p.charge(ctx, costs.Usage{
		Service:   p.image.Service(),
		Operation: models.OpImageGeneration,
		Model:     img.Model,
		Images:    1,
	}, in.AdID)
	b.ImageGeneration += amount
	return img, nil
}

func (p *Pipeline) upload(ctx context.Context, img *ImageResult, item WorkItem, in RunInput, b *models.CostBreakdown) (*HostedAsset, error) {
	sctx, cancel := context.WithTimeout(ctx, p.timeouts.Upload)
	defer cancel()

	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	name := fmt.Sprintf("ads/%s/%s%s", in.AdID, item.Platform.ID, extensionFor(contentType))
	asset, err := p.host.Upload(sctx, img.Data, name, contentType)
	if err != nil {
		return nil, err
	}
	amount := p.charge(ctx, costs.Usage{
		Service:   p.host.Service(),
		Operation: models.OpUpload,
		Requests:  1,
	}, in.AdID)
	b.Upload += amount
	return asset, nil
}

func (p *Pipeline) writeCopy(ctx context.Context, ac AdContext, item WorkItem, in RunInput, b *models.CostBreakdown) (*AdCopy, error) {
	sctx, cancel := context.WithTimeout(ctx, p.timeouts.Copy)
	defer cancel()

	res, err := p.text.Generate(sctx, TextRequest{
		Operation: models.OpCopyGeneration,
		System:    copySystem,
		Prompt:    copyRequest(ac, item, in.Style, in.Instructions),
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}
	p.chargeTokens(ctx, models.OpCopyGeneration, res, in.AdID, b)
	return ParseCopy(res.Text)
}

func (p *Pipeline) chargeTokens(ctx context.Context, operation string, res *TextResult, adID uuid.UUID, b *models.CostBreakdown) {
	amount := p.charge(ctx, costs.Usage{
		Service:      p.text.Service(),
		Operation:    operation,
		Model:        res.Model,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, adID)
	costs.AddToBreakdown(b, operation, amount)
}

// charge books spend that has already happened, so it outlives cancellation
// of the item.
func (p *Pipeline) charge(ctx context.Context, u costs.Usage, adID uuid.UUID) float64 {
	amount, err := p.ledger.Charge(context.WithoutCancel(ctx), u, &adID)
	if err != nil {
		p.log.Error("cost ledger write failed, ledger is missing provider spend",
			zap.String("ad_id", adID.String()),
			zap.String("service", u.Service),
			zap.String("operation", u.Operation),
			zap.Float64("amount", amount),
			zap.Error(err),
		)
	}
	return amount
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
