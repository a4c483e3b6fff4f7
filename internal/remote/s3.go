package remote

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"afterglow/internal/publish"
)

// PartSize is the multipart chunk size. Objects smaller than this are sent
// in a single PutObject and keep an MD5 ETag; larger ones get a composite
// ETag and are always re-uploaded.
const PartSize int64 = 64 * 1024 * 1024

// S3API is the subset of the S3 client the store calls.
type S3API interface {
	s3.ListObjectsV2APIClient
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store publishes to an S3 bucket.
type S3Store struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
}

// NewS3Store creates a store for bucket using client.
func NewS3Store(client S3API, bucket string) *S3Store {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = PartSize
		u.Concurrency = 1
	})
	return &S3Store{client: client, uploader: uploader, bucket: bucket}
}

// NewS3StoreFromConfig builds the SDK client from cfg.
func NewS3StoreFromConfig(cfg aws.Config, bucket string) *S3Store {
	return NewS3Store(s3.NewFromConfig(cfg), bucket)
}

// List pages through every object under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) (map[string]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	objects := make(map[string]string)
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, prefix, classify(err))
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" {
				continue
			}
			objects[key] = strings.Trim(aws.ToString(obj.ETag), `"`)
		}
	}
	return objects, nil
}

// Put uploads r to key. The uploader buffers parts itself, so size is only
// informational here.
func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader, _ int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return classify(err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return classify(err)
}

var _ publish.ObjectStore = (*S3Store)(nil)
