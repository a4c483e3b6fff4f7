package remote

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"afterglow/internal/config"
	"afterglow/internal/publish"
)

// NeedsAWS reports whether cfg requires AWS credentials.
func NeedsAWS(cfg *config.Config) bool {
	return cfg.Remote.Type == "s3" || cfg.DistributionID() != ""
}

// NewStoreFromConfig creates an ObjectStore based on the remote config type.
// awsCfg is required for type s3.
func NewStoreFromConfig(cfg *config.Config, awsCfg *aws.Config) (publish.ObjectStore, error) {
	switch cfg.Remote.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		bucket := cfg.BucketName()
		if bucket == "" {
			return nil, fmt.Errorf("s3 remote requires bucket to be set")
		}
		if awsCfg == nil {
			return nil, fmt.Errorf("s3 remote requires AWS credentials")
		}
		return NewS3StoreFromConfig(*awsCfg, bucket), nil
	case "filesystem":
		if cfg.Remote.FSRoot == "" {
			return nil, fmt.Errorf("filesystem remote requires fs_root to be set")
		}
		s, err := NewFileSystemStore(cfg.Remote.FSRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Remote.Type)
	}
}

// NewInvalidatorFromConfig returns the CDN invalidator, or nil when no
// distribution is configured.
func NewInvalidatorFromConfig(cfg *config.Config, awsCfg *aws.Config) (publish.Invalidator, error) {
	if cfg.DistributionID() == "" {
		return nil, nil
	}
	if awsCfg == nil {
		return nil, fmt.Errorf("cdn invalidation requires AWS credentials")
	}
	return NewCloudFrontInvalidatorFromConfig(*awsCfg), nil
}
