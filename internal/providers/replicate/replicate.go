// Package replicate talks to the Replicate predictions API for image
// generation and background removal.
package replicate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adstudio/backend/internal/generation"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL           = "https://api.replicate.com/v1"
	DefaultImageModel        = "black-forest-labs/flux-1.1-pro"
	DefaultBackgroundRemover = "851-labs/background-remover"

	service = "replicate"
)

// Prediction states reported by the API.
const (
	statusStarting   = "starting"
	statusProcessing = "processing"
	statusSucceeded  = "succeeded"
	statusFailed     = "failed"
	statusCanceled   = "canceled"
)

type Config struct {
	Token             string
	BaseURL           string
	ImageModel        string
	BackgroundRemover string
	// Poll bounds background removal jobs; image jobs carry their own policy.
	Poll generation.PollPolicy
}

// Client runs predictions and downloads their output.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(token, baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// outputURL returns the first URL in the prediction output, which is either
// a string or a list of strings depending on the model.
func (p *prediction) outputURL() (string, error) {
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}
	return "", fmt.Errorf("prediction %s has no output url", p.ID)
}

// Run creates a prediction for model and polls it until it finishes or the
// policy's attempts run out.
func (c *Client) Run(ctx context.Context, model string, input map[string]any, poll generation.PollPolicy) (*prediction, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, model)
	p, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		switch p.Status {
		case statusSucceeded:
			return p, nil
		case statusFailed, statusCanceled:
			return nil, predictionError(p)
		}
		if attempt >= poll.MaxAttempts {
			return nil, generation.NewProviderError(service, generation.ErrTimeout,
				fmt.Errorf("prediction %s still %s after %d polls", p.ID, p.Status, attempt))
		}

		select {
		case <-ctx.Done():
			return nil, generation.NewProviderError(service, generation.ErrTimeout, ctx.Err())
		case <-time.After(poll.Interval):
		}

		getURL := p.URLs.Get
		if getURL == "" {
			getURL = fmt.Sprintf("%s/predictions/%s", c.baseURL, p.ID)
		}
		if p, err = c.do(ctx, http.MethodGet, getURL, nil); err != nil {
			return nil, err
		}
	}
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, generation.NewProviderError(service, generation.ErrTimeout, err)
		}
		return nil, generation.NewProviderError(service, generation.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, generation.NewProviderError(service, generation.KindFromStatus(resp.StatusCode),
			fmt.Errorf("replicate returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, generation.NewProviderError(service, generation.ErrUnknown, fmt.Errorf("decode prediction: %w", err))
	}
	return &p, nil
}

// Download fetches a prediction output file.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", generation.NewProviderError(service, generation.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", generation.NewProviderError(service, generation.KindFromStatus(resp.StatusCode),
			fmt.Errorf("output download returned %d", resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", generation.NewProviderError(service, generation.ErrUnavailable, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func predictionError(p *prediction) error {
	msg := fmt.Sprint(p.Error)
	if p.Error == nil {
		msg = "prediction " + p.Status
	}
	kind := generation.ErrUnknown
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "nsfw") || strings.Contains(lower, "safety") {
		kind = generation.ErrPolicyRejected
	}
	return generation.NewProviderError(service, kind, fmt.Errorf("prediction %s: %s", p.ID, msg))
}

// ImageModel renders images with a Flux model. Sizes are free-form within
// the model's bounds.
type ImageModel struct {
	client *Client
	model  string
}

func NewImageModel(client *Client, model string) *ImageModel {
	if model == "" {
		model = DefaultImageModel
	}
	return &ImageModel{client: client, model: model}
}

func (m *ImageModel) Service() string { return service }

func (m *ImageModel) Constraints() generation.SizeConstraints {
	return generation.SizeConstraints{Multiple: 32, MinSide: 256, MaxSide: 1440}
}

func (m *ImageModel) Generate(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error) {
	input := map[string]any{
		"prompt":        req.Prompt,
		"aspect_ratio":  "custom",
		"width":         req.Width,
		"height":        req.Height,
		"output_format": "png",
	}
	if req.ReferenceURL != "" {
		input["image_prompt"] = req.ReferenceURL
	}

	p, err := m.client.Run(ctx, m.model, input, req.Poll)
	if err != nil {
		return nil, err
	}
	return m.client.fetchOutput(ctx, p, m.model)
}

// BackgroundRemover strips image backgrounds.
type BackgroundRemover struct {
	client *Client
	model  string
	poll   generation.PollPolicy
}

func NewBackgroundRemover(client *Client, model string, poll generation.PollPolicy) *BackgroundRemover {
	if model == "" {
		model = DefaultBackgroundRemover
	}
	return &BackgroundRemover{client: client, model: model, poll: poll}
}

func (r *BackgroundRemover) Service() string { return service }

func (r *BackgroundRemover) RemoveBackground(ctx context.Context, image []byte) (*generation.ImageResult, error) {
	contentType := http.DetectContentType(image)
	input := map[string]any{
		"image": "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image),
	}
	p, err := r.client.Run(ctx, r.model, input, r.poll)
	if err != nil {
		return nil, err
	}
	return r.client.fetchOutput(ctx, p, r.model)
}

func (c *Client) fetchOutput(ctx context.Context, p *prediction, model string) (*generation.ImageResult, error) {
	url, err := p.outputURL()
	if err != nil {
		return nil, generation.NewProviderError(service, generation.ErrUnknown, err)
	}
	data, contentType, err := c.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	c.log.Debug("replicate prediction finished", zap.String("id", p.ID), zap.String("model", model), zap.Int("bytes", len(data)))
	return &generation.ImageResult{Data: data, ContentType: contentType, Model: model}, nil
}
