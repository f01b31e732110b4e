package main

import (
	"context"

	"github.com/adstudio/backend/internal/config"
	"github.com/adstudio/backend/internal/generation"
	"github.com/adstudio/backend/internal/providers/gemini"
	"github.com/adstudio/backend/internal/providers/replicate"
	"github.com/adstudio/backend/internal/providers/s3host"
	"go.uber.org/zap"
)

type providers struct {
	text    generation.TextModel
	image   generation.ImageModel
	host    generation.AssetHost
	remover generation.BackgroundRemover
}

// buildProviders wires the configured vendors. A vendor without credentials
// is replaced by a stand-in whose calls fail as unavailable.
func buildProviders(ctx context.Context, cfg *config.Config, log *zap.Logger) (*providers, error) {
	p := &providers{
		text:  generation.Unconfigured{Name: "gemini"},
		image: generation.UnconfiguredImages{Unconfigured: generation.Unconfigured{Name: cfg.ImageProvider}},
		host:  generation.Unconfigured{Name: "s3"},
	}

	if cfg.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey})
		if err != nil {
			return nil, err
		}
		p.text = gemini.NewTextModel(client, cfg.Gemini.TextModel, log)
		if cfg.ImageProvider == config.ImageProviderImagen {
			p.image = gemini.NewImageModel(client, cfg.Gemini.ImageModel, log)
		}
	}

	if cfg.Replicate.Token != "" {
		rc := replicate.NewClient(cfg.Replicate.Token, cfg.Replicate.BaseURL, log)
		p.remover = replicate.NewBackgroundRemover(rc, cfg.Replicate.BackgroundModel, cfg.PollPolicy())
		if cfg.ImageProvider == config.ImageProviderReplicate {
			p.image = replicate.NewImageModel(rc, cfg.Replicate.ImageModel)
		}
	}

	if cfg.S3.Bucket != "" {
		s3cfg := s3host.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PublicURL: cfg.S3.PublicURL,
			PathStyle: cfg.S3.PathStyle,
			KeyPrefix: cfg.S3.KeyPrefix,
		}
		client, err := s3host.NewClient(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		host, err := s3host.New(client, s3cfg, log)
		if err != nil {
			return nil, err
		}
		p.host = host
	}

	log.Info("providers configured",
		zap.String("text", p.text.Service()),
		zap.String("image", p.image.Service()),
		zap.String("host", p.host.Service()),
		zap.Bool("background_removal", p.remover != nil),
	)
	return p, nil
}
