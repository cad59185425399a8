// Package storage provides object storage for published prime reports.
// R2 (S3-compatible) is reached via AWS SDK v2; MemStore is an in-process
// stand-in used when no R2 credentials are configured.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore is the subset of bucket operations the rest of the module uses.
type ObjectStore interface {
	UploadObject(ctx context.Context, bucket, key string, data []byte) error
	DownloadObject(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	ListObjects(ctx context.Context, bucket, prefix string, max int) ([]string, error)
}

// R2Client is an S3-compatible client for Cloudflare R2.
type R2Client struct {
	client *s3.Client
}

var _ ObjectStore = (*R2Client)(nil)

// NewR2Client creates an R2 client with the given account ID and R2 API credentials.
// Uses endpoint https://<accountID>.r2.cloudflarestorage.com and region "auto".
func NewR2Client(accountID, accessKeyID, secretAccessKey string) (*R2Client, error) {
	if accountID == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, fmt.Errorf("accountID, accessKeyID, and secretAccessKey are required")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)

	cfg := aws.Config{
		Region: "auto",
		Credentials: credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		),
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Client{client: client}, nil
}

// UploadObject uploads data to the given bucket and key.
func (c *R2Client) UploadObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("r2 put %s: %w", key, err)
	}
	return nil
}

// DownloadObject downloads the object at the given bucket and key.
// A missing key yields ErrNotFound.
func (c *R2Client) DownloadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("r2 get %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("r2 get %s: %w", key, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeleteObject removes the object. Deleting a missing key is not an error.
func (c *R2Client) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("r2 delete %s: %w", key, err)
	}
	return nil
}

// ListObjects returns up to max keys under prefix.
func (c *R2Client) ListObjects(ctx context.Context, bucket, prefix string, max int) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() && len(keys) < max {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("r2 list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
			if len(keys) >= max {
				break
			}
		}
	}
	return keys, nil
}
