// Package gemini adapts Google's GenAI SDK to the text and image model
// contracts used by the generation pipeline.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/adstudio/backend/internal/generation"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"

	textService  = "gemini"
	imageService = "imagen"
)

// imagenRatios are the aspect ratios Imagen renders.
var imagenRatios = []string{"1:1", "3:4", "4:3", "9:16", "16:9"}

type Config struct {
	APIKey     string
	TextModel  string
	ImageModel string
	BaseURL    string // overrides the API endpoint; used in tests
}

// NewClient builds a GenAI client for the Gemini developer API.
func NewClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// TextModel serves prompt synthesis, copy synthesis and brand analysis.
type TextModel struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

func NewTextModel(client *genai.Client, model string, log *zap.Logger) *TextModel {
	if model == "" {
		model = DefaultTextModel
	}
	return &TextModel{client: client, model: model, log: log}
}

func (m *TextModel) Service() string { return textService }

func (m *TextModel) Generate(ctx context.Context, req generation.TextRequest) (*generation.TextResult, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, mapError(textService, err)
	}

	text := resp.Text()
	if text == "" {
		reason := "empty response"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, generation.NewProviderError(textService, generation.ErrPolicyRejected,
				fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
		}
		return nil, generation.NewProviderError(textService, generation.ErrUnknown, errors.New(reason))
	}

	res := &generation.TextResult{Text: text, Model: m.model}
	if u := resp.UsageMetadata; u != nil {
		res.InputTokens = int(u.PromptTokenCount)
		res.OutputTokens = int(u.CandidatesTokenCount)
	}
	m.log.Debug("gemini call finished",
		zap.String("operation", req.Operation),
		zap.Int("input_tokens", res.InputTokens),
		zap.Int("output_tokens", res.OutputTokens),
	)
	return res, nil
}

// ImageModel renders ad images with Imagen. Imagen takes aspect ratios, not
// pixel sizes, and answers synchronously.
type ImageModel struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

func NewImageModel(client *genai.Client, model string, log *zap.Logger) *ImageModel {
	if model == "" {
		model = DefaultImageModel
	}
	return &ImageModel{client: client, model: model, log: log}
}

func (m *ImageModel) Service() string { return imageService }

func (m *ImageModel) Constraints() generation.SizeConstraints {
	return generation.SizeConstraints{AspectRatios: imagenRatios}
}

func (m *ImageModel) Generate(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error) {
	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    req.AspectRatio,
		OutputMIMEType: "image/png",
	}
	resp, err := m.client.Models.GenerateImages(ctx, m.model, req.Prompt, cfg)
	if err != nil {
		return nil, mapError(imageService, err)
	}
	if len(resp.GeneratedImages) == 0 {
		return nil, generation.NewProviderError(imageService, generation.ErrUnknown, errors.New("no image returned"))
	}

	img := resp.GeneratedImages[0]
	if img.RAIFilteredReason != "" {
		return nil, generation.NewProviderError(imageService, generation.ErrPolicyRejected, errors.New(img.RAIFilteredReason))
	}
	if img.Image == nil || len(img.Image.ImageBytes) == 0 {
		return nil, generation.NewProviderError(imageService, generation.ErrUnknown, errors.New("image has no bytes"))
	}

	contentType := img.Image.MIMEType
	if contentType == "" {
		contentType = "image/png"
	}
	return &generation.ImageResult{Data: img.Image.ImageBytes, ContentType: contentType, Model: m.model}, nil
}

func mapError(service string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return generation.NewProviderError(service, generation.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := generation.KindFromStatus(apiErr.Code)
		if apiErr.Code == http.StatusBadRequest && apiErr.Status == "FAILED_PRECONDITION" {
			kind = generation.ErrUnavailable
		}
		return generation.NewProviderError(service, kind, err)
	}
	return generation.NewProviderError(service, generation.ErrUnavailable, err)
}
