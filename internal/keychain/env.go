package keychain

import "fmt"

// Environment variables read by EnvStore.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
)

// EnvStore reads credentials from the process environment. It cannot
// modify them.
type EnvStore struct {
	getenv func(string) string
}

var _ Store = (*EnvStore)(nil)

// NewEnvStore creates a store reading through getenv.
func NewEnvStore(getenv func(string) string) *EnvStore {
	return &EnvStore{getenv: getenv}
}

func (s *EnvStore) Save(Credentials) error {
	return fmt.Errorf("environment credentials are read-only; set %s and %s", EnvAccessKeyID, EnvSecretAccessKey)
}

func (s *EnvStore) Load() (Credentials, error) {
	creds := Credentials{
		AccessKeyID:     s.getenv(EnvAccessKeyID),
		SecretAccessKey: s.getenv(EnvSecretAccessKey),
	}
	if !creds.Valid() {
		return Credentials{}, missing(EnvAccessKeyID + " and " + EnvSecretAccessKey + " must both be set")
	}
	return creds, nil
}

func (s *EnvStore) Has() bool {
	return s.getenv(EnvAccessKeyID) != "" && s.getenv(EnvSecretAccessKey) != ""
}

func (s *EnvStore) Delete() error {
	return nil
}
