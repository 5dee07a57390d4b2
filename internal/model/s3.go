package model

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"iris-api/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectStore is the slice of the S3 API the artifact sync needs.
type objectStore interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client for the configured artifact source.
// Custom endpoints (MinIO and friends) use path-style addressing when
// configured.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.ResolveSecret(cfg.AccessKeyID),
			config.ResolveSecret(cfg.SecretAccessKey),
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return client, nil
}

// SyncArtifacts downloads every object under the configured prefix into
// destDir, preserving relative paths. It returns the number of files
// written.
func SyncArtifacts(ctx context.Context, store objectStore, cfg config.S3Config, destDir string) (int, error) {
	prefix := strings.TrimSuffix(cfg.Prefix, "/")
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(cfg.Bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix + "/")
	}

	written := 0
	for {
		page, err := store.ListObjectsV2(ctx, input)
		if err != nil {
			return written, fmt.Errorf("list artifacts: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			rel := key
			if prefix != "" {
				rel = strings.TrimPrefix(key, prefix+"/")
			}
			dest := filepath.Join(destDir, filepath.FromSlash(rel))
			if err := downloadObject(ctx, store, cfg.Bucket, key, dest); err != nil {
				return written, err
			}
			written++
		}
		if !aws.ToBool(page.IsTruncated) {
			break
		}
		input.ContinuationToken = page.NextContinuationToken
	}
	return written, nil
}

func downloadObject(ctx context.Context, store objectStore, bucket, key, dest string) error {
	out, err := store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
