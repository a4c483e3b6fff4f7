package app

import (
	"context"
	"fmt"

	"afterglow/internal/config"
	"afterglow/internal/keychain"
)

// NewCredentialStore opens the credentials store named by cfg.
func NewCredentialStore(cfg *config.Config, passphrase keychain.PassphraseFunc) (keychain.Store, error) {
	store, err := keychain.NewStoreFromConfig(cfg.Credentials, passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating credentials store: %w", err)
	}
	return store, nil
}

// LoadCredentials reads the stored credentials, failing fast with
// publish.ErrMissingCredentials when none are stored.
func LoadCredentials(cfg *config.Config, passphrase keychain.PassphraseFunc) (keychain.Credentials, error) {
	store, err := NewCredentialStore(cfg, passphrase)
	if err != nil {
		return keychain.Credentials{}, err
	}
	return store.Load()
}

// ValidateCredentials checks creds against STS and the configured bucket.
func ValidateCredentials(ctx context.Context, cfg *config.Config, creds keychain.Credentials) (*keychain.Identity, error) {
	bucket := cfg.BucketName()
	if bucket == "" {
		return nil, fmt.Errorf("validating credentials: no bucket configured")
	}
	awsCfg, err := keychain.AWSConfig(ctx, creds, cfg.Region())
	if err != nil {
		return nil, err
	}
	return keychain.NewValidatorFromConfig(awsCfg).Validate(ctx, bucket)
}
