package remote

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"afterglow/internal/testutil"
)

func TestS3Store_List(t *testing.T) {
	t.Run("pages through every object and strips etag quotes", func(t *testing.T) {
		var prefixes []string
		client := &testutil.MockS3Client{
			ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				prefixes = append(prefixes, aws.ToString(in.Prefix))
				if in.ContinuationToken == nil {
					return &s3.ListObjectsV2Output{
						Contents: []s3types.Object{
							{Key: aws.String("site/galleries/a.jpg"), ETag: aws.String(`"aaa"`)},
							{Key: aws.String("site/index.html"), ETag: aws.String(`"bbb"`)},
						},
						IsTruncated:           aws.Bool(true),
						NextContinuationToken: aws.String("page-2"),
					}, nil
				}
				return &s3.ListObjectsV2Output{
					Contents: []s3types.Object{
						{Key: aws.String("site/galleries/big.jpg"), ETag: aws.String(`"ccc-3"`)},
					},
					IsTruncated: aws.Bool(false),
				}, nil
			},
		}
		store := NewS3Store(client, "photos")

		got, err := store.List(context.Background(), "site/")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}

		want := map[string]string{
			"site/galleries/a.jpg":   "aaa",
			"site/index.html":        "bbb",
			"site/galleries/big.jpg": "ccc-3",
		}
		if len(got) != len(want) {
			t.Fatalf("List() returned %d objects, want %d: %v", len(got), len(want), got)
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("List()[%q] = %q, want %q", k, got[k], v)
			}
		}
		if len(prefixes) != 2 || prefixes[0] != "site/" {
			t.Errorf("ListObjectsV2 prefixes = %v, want two calls with site/", prefixes)
		}
	})

	t.Run("empty prefix lists the whole bucket", func(t *testing.T) {
		client := &testutil.MockS3Client{
			ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				if in.Prefix != nil {
					t.Errorf("Prefix = %q, want nil", aws.ToString(in.Prefix))
				}
				return &s3.ListObjectsV2Output{}, nil
			},
		}
		got, err := NewS3Store(client, "photos").List(context.Background(), "")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List() = %v, want empty", got)
		}
	})

	t.Run("missing bucket is classified", func(t *testing.T) {
		client := &testutil.MockS3Client{
			ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				return nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "no such bucket"}
			},
		}
		_, err := NewS3Store(client, "photos").List(context.Background(), "")
		if !errors.Is(err, ErrBucketNotFound) {
			t.Errorf("List() error = %v, want ErrBucketNotFound", err)
		}
	})
}

func TestS3Store_Put(t *testing.T) {
	var got *s3.PutObjectInput
	var body string
	client := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			data, err := io.ReadAll(in.Body)
			if err != nil {
				return nil, err
			}
			body = string(data)
			return &s3.PutObjectOutput{}, nil
		},
	}
	store := NewS3Store(client, "photos")

	err := store.Put(context.Background(), "site/galleries/a.jpg", "image/jpeg", strings.NewReader("jpeg bytes"), 10)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if got == nil {
		t.Fatalf("PutObject not called; calls = %v", client.Calls())
	}
	if aws.ToString(got.Bucket) != "photos" || aws.ToString(got.Key) != "site/galleries/a.jpg" {
		t.Errorf("PutObject target = %s/%s, want photos/site/galleries/a.jpg", aws.ToString(got.Bucket), aws.ToString(got.Key))
	}
	if aws.ToString(got.ContentType) != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", aws.ToString(got.ContentType))
	}
	if body != "jpeg bytes" {
		t.Errorf("body = %q, want %q", body, "jpeg bytes")
	}
	for _, call := range client.Calls() {
		if call == "CreateMultipartUpload" {
			t.Error("small object used a multipart upload")
		}
	}
}

func TestS3Store_PutAccessDenied(t *testing.T) {
	client := &testutil.MockS3Client{
		PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "AccessDenied"}
		},
	}

	err := NewS3Store(client, "photos").Put(context.Background(), "k", "text/plain", strings.NewReader("x"), 1)
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Put() error = %v, want ErrAccessDenied", err)
	}
}

func TestS3Store_Delete(t *testing.T) {
	var key string
	client := &testutil.MockS3Client{
		DeleteObjectFunc: func(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			key = aws.ToString(in.Key)
			return &s3.DeleteObjectOutput{}, nil
		},
	}

	if err := NewS3Store(client, "photos").Delete(context.Background(), "site/galleries/old.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if key != "site/galleries/old.jpg" {
		t.Errorf("DeleteObject key = %q, want site/galleries/old.jpg", key)
	}
}

func TestCloudFrontInvalidator_Invalidate(t *testing.T) {
	var got *cloudfront.CreateInvalidationInput
	client := &testutil.MockCloudFrontClient{
		CreateInvalidationFunc: func(_ context.Context, in *cloudfront.CreateInvalidationInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error) {
			got = in
			return &cloudfront.CreateInvalidationOutput{}, nil
		},
	}

	err := NewCloudFrontInvalidator(client).Invalidate(context.Background(), "E123ABC", "/site/*", "ref-1")
	if err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	if aws.ToString(got.DistributionId) != "E123ABC" {
		t.Errorf("DistributionId = %q, want E123ABC", aws.ToString(got.DistributionId))
	}
	batch := got.InvalidationBatch
	if aws.ToString(batch.CallerReference) != "ref-1" {
		t.Errorf("CallerReference = %q, want ref-1", aws.ToString(batch.CallerReference))
	}
	if aws.ToInt32(batch.Paths.Quantity) != 1 || len(batch.Paths.Items) != 1 || batch.Paths.Items[0] != "/site/*" {
		t.Errorf("Paths = %d %v, want 1 [/site/*]", aws.ToInt32(batch.Paths.Quantity), batch.Paths.Items)
	}
}

func TestCloudFrontInvalidator_UnknownDistribution(t *testing.T) {
	client := &testutil.MockCloudFrontClient{
		CreateInvalidationFunc: func(context.Context, *cloudfront.CreateInvalidationInput, ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "NoSuchDistribution"}
		},
	}

	err := NewCloudFrontInvalidator(client).Invalidate(context.Background(), "E404", "/*", "ref")
	if !errors.Is(err, ErrDistributionNotFound) {
		t.Errorf("Invalidate() error = %v, want ErrDistributionNotFound", err)
	}
}

func TestClassify(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil stays nil", err: nil, want: nil},
		{name: "non-api error unchanged", err: plain, want: plain},
		{name: "no such bucket", err: &smithy.GenericAPIError{Code: "NoSuchBucket"}, want: ErrBucketNotFound},
		{name: "forbidden", err: &smithy.GenericAPIError{Code: "Forbidden"}, want: ErrAccessDenied},
		{name: "bad key id", err: &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, want: ErrInvalidCredentials},
		{name: "expired token", err: &smithy.GenericAPIError{Code: "ExpiredToken"}, want: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("classify() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("unknown code keeps the api error", func(t *testing.T) {
		in := &smithy.GenericAPIError{Code: "SlowDown"}
		got := classify(in)
		var apiErr smithy.APIError
		if !errors.As(got, &apiErr) || apiErr.ErrorCode() != "SlowDown" {
			t.Errorf("classify() = %v, want the original api error", got)
		}
	})
}
