package remote

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrBucketNotFound indicates the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied indicates the credentials lack permission for the call.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates the credentials were not accepted.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDistributionNotFound indicates the CloudFront distribution does not exist.
	ErrDistributionNotFound = errors.New("distribution not found")
)

var apiErrorKinds = map[string]error{
	"NoSuchBucket":          ErrBucketNotFound,
	"AccessDenied":          ErrAccessDenied,
	"Forbidden":             ErrAccessDenied,
	"InvalidAccessKeyId":    ErrInvalidCredentials,
	"SignatureDoesNotMatch": ErrInvalidCredentials,
	"ExpiredToken":          ErrInvalidCredentials,
	"InvalidClientTokenId":  ErrInvalidCredentials,
	"NoSuchDistribution":    ErrDistributionNotFound,
}

// classify tags AWS API errors with a sentinel so callers can use errors.Is
// without depending on the SDK. Other errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if kind, ok := apiErrorKinds[apiErr.ErrorCode()]; ok {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}
