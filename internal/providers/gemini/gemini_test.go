package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *genai.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return client
}

func TestTextModelGenerate(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"headline\":\"Hi\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 40}
		}`))
	})

	m := NewTextModel(client, "", zap.NewNop())
	res, err := m.Generate(context.Background(), generation.TextRequest{
		Operation: models.OpCopyGeneration,
		System:    "be brief",
		Prompt:    "write copy",
		JSON:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"headline":"Hi"}`, res.Text)
	assert.Equal(t, DefaultTextModel, res.Model)
	assert.Equal(t, 120, res.InputTokens)
	assert.Equal(t, 40, res.OutputTokens)
	assert.Contains(t, body, "systemInstruction")
}

func TestTextModelRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	})

	_, err := NewTextModel(client, "", zap.NewNop()).Generate(context.Background(), generation.TextRequest{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrRateLimited)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limited", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, generation.ErrRateLimited},
		{"server error", genai.APIError{Code: 503, Status: "UNAVAILABLE"}, generation.ErrUnavailable},
		{"gateway timeout", genai.APIError{Code: 504}, generation.ErrTimeout},
		{"bad request", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}, generation.ErrUnknown},
		{"region unsupported", genai.APIError{Code: 400, Status: "FAILED_PRECONDITION"}, generation.ErrUnavailable},
		{"deadline", context.DeadlineExceeded, generation.ErrTimeout},
		{"transport", errors.New("connection reset"), generation.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError("gemini", tt.err)
			assert.Equal(t, tt.want, generation.Classify(err))
			var pe *generation.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "gemini", pe.Service)
		})
	}
}

func TestMapErrorKeepsCancellation(t *testing.T) {
	err := mapError("gemini", context.Canceled)
	assert.Equal(t, context.Canceled, err)
}

func TestImagenConstraints(t *testing.T) {
	m := NewImageModel(nil, "", zap.NewNop())
	size := generation.Normalize(1080, 1920, m.Constraints())
	assert.Equal(t, "9:16", size.AspectRatio)
	assert.Equal(t, imageService, m.Service())
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}
