// Package generationtest provides in-memory provider doubles for tests.
package generationtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/models"
)

// TextModel answers prompt synthesis with a fixed prompt and copy synthesis
// with valid JSON copy. Err, when set, decides per request whether to fail.
type TextModel struct {
	Err      func(req generation.TextRequest) error
	CopyText string // raw copy output; valid JSON when empty

	mu    sync.Mutex
	calls []generation.TextRequest
}

func (m *TextModel) Service() string { return "gemini" }

func (m *TextModel) Generate(ctx context.Context, req generation.TextRequest) (*generation.TextResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		if err := m.Err(req); err != nil {
			return nil, err
		}
	}

	res := &generation.TextResult{Model: "fake-text", InputTokens: 1000, OutputTokens: 500}
	switch req.Operation {
	case models.OpCopyGeneration:
		if m.CopyText != "" {
			res.Text = m.CopyText
			break
		}
		b, _ := json.Marshal(generation.AdCopy{
			Headline:     "Meet the best",
			Body:         "Built for you.",
			CallToAction: "Shop Now",
			Hashtags:     []string{"#fake"},
		})
		res.Text = string(b)
	default:
		res.Text = "a bright product photo on a clean background"
	}
	return res, nil
}

func (m *TextModel) Calls() []generation.TextRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.TextRequest(nil), m.calls...)
}

// ImageModel returns a tiny payload. Err, when set, decides per request
// whether to fail.
type ImageModel struct {
	Err   func(req generation.ImageRequest) error
	Sizes generation.SizeConstraints

	mu       sync.Mutex
	requests []generation.ImageRequest
}

func (m *ImageModel) Service() string { return "imagen" }

func (m *ImageModel) Constraints() generation.SizeConstraints { return m.Sizes }

func (m *ImageModel) Generate(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		if err := m.Err(req); err != nil {
			return nil, err
		}
	}
	return &generation.ImageResult{Data: []byte("\x89PNG fake"), ContentType: "image/png", Model: "fake-image"}, nil
}

func (m *ImageModel) Requests() []generation.ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.ImageRequest(nil), m.requests...)
}

// FailSize fails image requests for one normalized size.
func FailSize(width, height int, err error) func(generation.ImageRequest) error {
	return func(req generation.ImageRequest) error {
		if req.Width == width && req.Height == height {
			return err
		}
		return nil
	}
}

// AssetHost keeps uploads in memory.
type AssetHost struct {
	Err error

	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (h *AssetHost) Service() string { return "s3" }

func (h *AssetHost) Upload(ctx context.Context, data []byte, name, contentType string) (*generation.HostedAsset, error) {
	if h.Err != nil {
		return nil, h.Err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.objects == nil {
		h.objects = map[string][]byte{}
	}
	h.objects[name] = data
	return &generation.HostedAsset{URL: "https://cdn.test/" + name, DeleteID: name}, nil
}

func (h *AssetHost) Delete(ctx context.Context, deleteID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.objects, deleteID)
	h.deleted = append(h.deleted, deleteID)
	return nil
}

func (h *AssetHost) Objects() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

func (h *AssetHost) Deleted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}

func (h *AssetHost) Fetch(ctx context.Context, deleteID string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, ok := h.objects[deleteID]
	if !ok {
		return nil, fmt.Errorf("object %s not found", deleteID)
	}
	return data, nil
}

// Has reports whether an object is stored under the key in url.
func (h *AssetHost) Has(url string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.objects[strings.TrimPrefix(url, "https://cdn.test/")]
	return ok
}

type BackgroundRemover struct {
	Err error
}

func (r *BackgroundRemover) Service() string { return "replicate" }

func (r *BackgroundRemover) RemoveBackground(ctx context.Context, image []byte) (*generation.ImageResult, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return &generation.ImageResult{Data: append([]byte("nobg:"), image...), ContentType: "image/png", Model: "fake-rembg"}, nil
}
