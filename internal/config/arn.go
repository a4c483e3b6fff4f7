package config

import "strings"

// ExtractBucketName returns the bucket name from an S3 ARN, or the trimmed input as-is.
//
//	"arn:aws:s3:::my-bucket"        -> "my-bucket"
//	"arn:aws:s3:::my-bucket/prefix" -> "my-bucket"
//	"my-bucket"                     -> "my-bucket"
func ExtractBucketName(input string) string {
	trimmed := strings.TrimSpace(input)
	rest, ok := strings.CutPrefix(trimmed, "arn:")
	if !ok {
		return trimmed
	}

	// partition:s3:region:account:resource
	parts := strings.SplitN(rest, ":", 5)
	resource := parts[len(parts)-1]
	bucket, _, _ := strings.Cut(resource, "/")
	if bucket == "" {
		return trimmed
	}
	return bucket
}

// ExtractDistributionID returns the distribution id from a CloudFront ARN, or the trimmed input as-is.
//
//	"arn:aws:cloudfront::123456:distribution/E1ABC2DEF3GH" -> "E1ABC2DEF3GH"
//	"E1ABC2DEF3GH"                                         -> "E1ABC2DEF3GH"
func ExtractDistributionID(input string) string {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "arn:") {
		return trimmed
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return trimmed
}
