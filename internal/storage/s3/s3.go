// Package s3 stores blobs in an S3-compatible object store (AWS S3, MinIO,
// or the storage API of a hosted backend) through aws-sdk-go-v2.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sakif/kudos/internal/storage"
)

var _ storage.BlobStore = (*Store)(nil)

type Options struct {
	// Endpoint is the store's base URL. Empty means AWS itself.
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	// PublicURL prefixes returned object URLs. Defaults to Endpoint.
	PublicURL string
}

type Store struct {
	client    *s3.Client
	publicURL string
}

func New(ctx context.Context, opts Options) (*Store, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		// One attempt per call: a failed upload is reported, not retried.
		awsconfig.WithRetryMaxAttempts(1),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: loading config: %w", err)
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			// Self-hosted stores rarely support virtual-host addressing.
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = endpoint
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}

	return &Store{client: client, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *Store) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	key, err := storage.CleanPath(objectPath)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3: uploading %s/%s: %w", bucket, key, err)
	}

	return storage.PublicURL(s.publicURL, bucket, key), nil
}

func (s *Store) Delete(ctx context.Context, bucket, objectPath string) error {
	key, err := storage.CleanPath(objectPath)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: deleting %s/%s: %w", bucket, key, err)
	}
	return nil
}
