package generation

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("provider not configured")

// Unconfigured stands in for any provider whose credentials are missing.
// Every call fails with an unavailable ProviderError wrapping ErrNotConfigured.
type Unconfigured struct {
	Name string
}

func (u Unconfigured) Service() string { return u.Name }

func (u Unconfigured) Constraints() SizeConstraints { return SizeConstraints{} }

func (u Unconfigured) err() error {
	return NewProviderError(u.Name, ErrUnavailable, ErrNotConfigured)
}

func (u Unconfigured) Generate(context.Context, TextRequest) (*TextResult, error) {
	return nil, u.err()
}

func (u Unconfigured) Upload(context.Context, []byte, string, string) (*HostedAsset, error) {
	return nil, u.err()
}

func (u Unconfigured) Fetch(context.Context, string) ([]byte, error) {
	return nil, u.err()
}

func (u Unconfigured) Delete(context.Context, string) error {
	return u.err()
}

func (u Unconfigured) RemoveBackground(context.Context, []byte) (*ImageResult, error) {
	return nil, u.err()
}

// UnconfiguredImages is the image-model counterpart of Unconfigured. The two
// Generate signatures cannot share a type.
type UnconfiguredImages struct {
	Unconfigured
}

func (u UnconfiguredImages) Generate(context.Context, ImageRequest) (*ImageResult, error) {
	return nil, u.err()
}
