// Package s3host stores rendered ad images in an S3 bucket served from a
// public base URL.
package s3host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adstudio/backend/internal/generation"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const service = "s3"

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // S3-compatible endpoint, e.g. MinIO or R2
	PublicURL string // base URL objects are served from
	PathStyle bool
	KeyPrefix string
}

// ObjectAPI is the subset of the S3 client the host uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Host struct {
	api       ObjectAPI
	bucket    string
	publicURL string
	prefix    string
	log       *zap.Logger
}

// NewClient builds an S3 client from the default AWS credential chain.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

func New(api ObjectAPI, cfg Config, log *zap.Logger) (*Host, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
		if cfg.Region != "" {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &Host{
		api:       api,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		prefix:    strings.Trim(cfg.KeyPrefix, "/"),
		log:       log,
	}, nil
}

func (h *Host) Service() string { return service }

func (h *Host) key(name string) string {
	name = strings.TrimLeft(name, "/")
	if h.prefix == "" {
		return name
	}
	return h.prefix + "/" + name
}

// Upload stores data under name. The object key doubles as the delete handle.
func (h *Host) Upload(ctx context.Context, data []byte, name, contentType string) (*generation.HostedAsset, error) {
	key := h.key(name)
	_, err := h.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &generation.HostedAsset{URL: h.publicURL + "/" + key, DeleteID: key}, nil
}

func (h *Host) Fetch(ctx context.Context, deleteID string) ([]byte, error) {
	out, err := h.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(deleteID),
	})
	if err != nil {
		return nil, mapError(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, generation.NewProviderError(service, generation.ErrUnavailable, err)
	}
	return data, nil
}

func (h *Host) Delete(ctx context.Context, deleteID string) error {
	if deleteID == "" {
		return nil
	}
	_, err := h.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(deleteID),
	})
	if err != nil {
		return mapError(err)
	}
	h.log.Debug("deleted hosted object", zap.String("key", deleteID))
	return nil
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return generation.NewProviderError(service, generation.ErrTimeout, err)
	}
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) {
		return generation.NewProviderError(service, generation.KindFromStatus(re.HTTPStatusCode()), err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "SlowDown" {
		return generation.NewProviderError(service, generation.ErrRateLimited, err)
	}
	return generation.NewProviderError(service, generation.ErrUnavailable, err)
}
