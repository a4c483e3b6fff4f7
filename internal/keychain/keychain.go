// Package keychain keeps the AWS credentials a publish signs requests with.
package keychain

import (
	"fmt"
	"os"

	"afterglow/internal/config"
	"afterglow/internal/publish"
)

// Credentials is an AWS access key pair.
type Credentials struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// Valid reports whether both halves of the key pair are set.
func (c Credentials) Valid() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Store is an opaque secret store for one set of credentials.
type Store interface {
	// Save replaces the stored credentials.
	Save(creds Credentials) error

	// Load returns the stored credentials, or an error wrapping
	// publish.ErrMissingCredentials when none or only part are stored.
	Load() (Credentials, error)

	// Has reports whether credentials appear to be stored, without
	// decrypting them.
	Has() bool

	// Delete removes stored credentials. Deleting nothing is not an error.
	Delete() error
}

// Hint returns the last four characters of the access key id, or the whole
// id when it is shorter, so users can tell which key is configured.
func Hint(creds Credentials) string {
	id := creds.AccessKeyID
	if len(id) >= 4 {
		return id[len(id)-4:]
	}
	return id
}

// NewStoreFromConfig creates a Store based on the credentials config type.
// passphrase is only consulted by the age store, and only when needed.
func NewStoreFromConfig(cfg config.CredentialsConfig, passphrase PassphraseFunc) (Store, error) {
	switch cfg.Type {
	case "", "age":
		if cfg.Path == "" {
			return nil, fmt.Errorf("age credentials store requires path to be set")
		}
		return NewAgeStore(cfg.Path, passphrase), nil
	case "env":
		return NewEnvStore(os.Getenv), nil
	default:
		return nil, fmt.Errorf("unknown credentials type: %s", cfg.Type)
	}
}

func missing(detail string) error {
	return fmt.Errorf("%w: %s", publish.ErrMissingCredentials, detail)
}
