package generation

import (
	"context"
	"time"
)

// TextModel produces free text or JSON from a prompt.
type TextModel interface {
	Service() string
	Generate(ctx context.Context, req TextRequest) (*TextResult, error)
}

type TextRequest struct {
	Operation string // cost operation the call is booked under
	System    string
	Prompt    string
	JSON      bool // ask for a JSON object response
}

type TextResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// ImageModel renders an image from a prompt. Constraints describe the sizes
// the provider accepts; requests are normalized against them before submission.
type ImageModel interface {
	Service() string
	Constraints() SizeConstraints
	Generate(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

type ImageRequest struct {
	Prompt       string
	Width        int
	Height       int
	AspectRatio  string // set when the provider takes ratios instead of pixel sizes
	ReferenceURL string
	Poll         PollPolicy
}

type ImageResult struct {
	Data        []byte
	ContentType string
	Model       string
}

// PollPolicy bounds how long an asynchronous provider job is awaited.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

func (p PollPolicy) Budget() time.Duration {
	return time.Duration(p.MaxAttempts) * p.Interval
}

// BackgroundRemover returns the input image with its background made transparent.
type BackgroundRemover interface {
	Service() string
	RemoveBackground(ctx context.Context, image []byte) (*ImageResult, error)
}

// AssetHost stores rendered images and returns a public URL plus an opaque
// handle for later deletion.
type AssetHost interface {
	Service() string
	Upload(ctx context.Context, data []byte, name, contentType string) (*HostedAsset, error)
	Fetch(ctx context.Context, deleteID string) ([]byte, error)
	Delete(ctx context.Context, deleteID string) error
}

type HostedAsset struct {
	URL      string
	DeleteID string
}
