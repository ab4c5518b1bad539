// Package s3 implements [blob.Store] over an S3-compatible object storage API.
//
// Supabase Storage exposes one at <project>/storage/v1/s3; any other S3 endpoint (MinIO,
// AWS) works as long as objects are readable at the configured public base URL.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/sonsunin65/portfolio-lugsana/pkg/blob"
)

// Config holds the endpoint and credentials.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBase is the URL public objects are served from, without the
	// /storage/v1/object/public suffix.
	PublicBase string
}

// S3Store implements blob.Store.
type S3Store struct {
	client     *s3.Client
	publicBase string
	logger     zerolog.Logger
}

// NewS3Store creates a client for cfg.
func NewS3Store(ctx context.Context, cfg Config, logger zerolog.Logger) (*S3Store, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage access key or secret key is empty")
	}
	if cfg.PublicBase == "" {
		return nil, fmt.Errorf("storage public base URL is empty")
	}

	cred := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithCredentialsProvider(cred), config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client:     client,
		publicBase: strings.TrimSuffix(cfg.PublicBase, "/"),
		logger:     logger.With().Str("blob", "s3").Logger(),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}
	s.logger.Debug().Str("bucket", bucket).Str("path", path).Int("bytes", len(data)).Msg("uploaded object")
	return s.PublicURL(bucket, path), nil
}

func (s *S3Store) PublicURL(bucket, path string) string {
	return blob.BuildPublicURL(s.publicBase, bucket, path)
}

func (s *S3Store) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", bucket, err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
		return fmt.Errorf("failed to remove from %s: %s", bucket, strings.Join(msgs, "; "))
	}
	return nil
}

var _ blob.Store = (*S3Store)(nil)
