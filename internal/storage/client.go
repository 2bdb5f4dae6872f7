// Package storage implements the object-storage side of the engine: S3
// client construction, the paginated directory crawler, the directory
// cache, and the derived media/thumbnail URL builders.
package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/viper373/videostation/internal/config"
)

// ListClient is the slice of the S3 API the crawler consumes. *s3.Client
// satisfies it; tests substitute fakes.
type ListClient interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewS3Client builds an S3 client for the configured bucket endpoint.
// Compatible vendors require path-style addressing, so it is always on.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage.bucket is empty")
	}

	loaders := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Storage.Region),
	}
	if cfg.Storage.AccessKey != "" && cfg.Storage.SecretKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKey, cfg.Storage.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		}
		o.UsePathStyle = true
	})
	return client, nil
}
