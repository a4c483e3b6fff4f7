package keychain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ValidationTimeout bounds each validation request.
const ValidationTimeout = 15 * time.Second

// Identity describes who the validated credentials belong to.
type Identity struct {
	User    string `json:"user"`
	Account string `json:"account"`
	ARN     string `json:"arn"`
}

// STSAPI is the STS call the validator makes.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Validator checks that credentials work and can read the bucket.
type Validator struct {
	sts     STSAPI
	s3      s3.ListObjectsV2APIClient
	timeout time.Duration
}

// NewValidator wraps the given clients.
func NewValidator(stsClient STSAPI, s3Client s3.ListObjectsV2APIClient) *Validator {
	return &Validator{sts: stsClient, s3: s3Client, timeout: ValidationTimeout}
}

// NewValidatorFromConfig builds both clients from cfg.
func NewValidatorFromConfig(cfg aws.Config) *Validator {
	return NewValidator(sts.NewFromConfig(cfg), s3.NewFromConfig(cfg))
}

// Validate resolves the caller identity, then lists at most one key in
// bucket to confirm access.
func (v *Validator) Validate(ctx context.Context, bucket string) (*Identity, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	stsCtx, cancel := context.WithTimeout(ctx, v.timeout)
	out, err := v.sts.GetCallerIdentity(stsCtx, &sts.GetCallerIdentityInput{})
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("sts request timed out after %s; check region and network", v.timeout)
		}
		return nil, fmt.Errorf("sts: %w", err)
	}
	id := &Identity{
		User:    aws.ToString(out.UserId),
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
	}

	s3Ctx, cancel := context.WithTimeout(ctx, v.timeout)
	_, err = v.s3.ListObjectsV2(s3Ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(1),
	})
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("s3 request timed out after %s; check bucket, region and network", v.timeout)
		}
		return nil, fmt.Errorf("s3: %w", err)
	}

	return id, nil
}
