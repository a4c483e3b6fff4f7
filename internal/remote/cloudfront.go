package remote

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"

	"afterglow/internal/publish"
)

// CloudFrontRegion is the region CloudFront's control plane is addressed in.
const CloudFrontRegion = "us-east-1"

// CloudFrontAPI is the subset of the CloudFront client the invalidator calls.
type CloudFrontAPI interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// CloudFrontInvalidator creates CloudFront invalidations.
type CloudFrontInvalidator struct {
	client CloudFrontAPI
}

// NewCloudFrontInvalidator wraps client.
func NewCloudFrontInvalidator(client CloudFrontAPI) *CloudFrontInvalidator {
	return &CloudFrontInvalidator{client: client}
}

// NewCloudFrontInvalidatorFromConfig builds the SDK client from cfg,
// overriding its region.
func NewCloudFrontInvalidatorFromConfig(cfg aws.Config) *CloudFrontInvalidator {
	cfg = cfg.Copy()
	cfg.Region = CloudFrontRegion
	return NewCloudFrontInvalidator(cloudfront.NewFromConfig(cfg))
}

// Invalidate requests invalidation of a single path pattern.
func (c *CloudFrontInvalidator) Invalidate(ctx context.Context, distributionID, path, callerRef string) error {
	_, err := c.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String(callerRef),
			Paths: &types.Paths{
				Quantity: aws.Int32(1),
				Items:    []string{path},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating invalidation for %s: %w", distributionID, classify(err))
	}
	return nil
}

var _ publish.Invalidator = (*CloudFrontInvalidator)(nil)
