package keychain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/BurntSushi/toml"
)

// PassphraseFunc supplies the passphrase protecting the credentials file.
type PassphraseFunc func() (string, error)

// AgeStore keeps credentials in a TOML document encrypted with age's
// scrypt-based passphrase encryption.
type AgeStore struct {
	path       string
	passphrase PassphraseFunc
}

var _ Store = (*AgeStore)(nil)

// NewAgeStore creates a store backed by the file at path.
func NewAgeStore(path string, passphrase PassphraseFunc) *AgeStore {
	return &AgeStore{path: path, passphrase: passphrase}
}

// Save encrypts creds and atomically replaces the credentials file.
func (s *AgeStore) Save(creds Credentials) error {
	if !creds.Valid() {
		return fmt.Errorf("access key id and secret access key are required")
	}
	pass, err := s.askPassphrase()
	if err != nil {
		return err
	}

	var plain bytes.Buffer
	if err := toml.NewEncoder(&plain).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	recipient, err := age.NewScryptRecipient(pass)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(w, &plain); err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing credentials file: %w", err)
	}
	return nil
}

// Load decrypts the credentials file.
func (s *AgeStore) Load() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, missing("no credentials file at " + s.path)
		}
		return Credentials{}, fmt.Errorf("reading credentials file: %w", err)
	}

	pass, err := s.askPassphrase()
	if err != nil {
		return Credentials{}, err
	}
	identity, err := age.NewScryptIdentity(pass)
	if err != nil {
		return Credentials{}, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return Credentials{}, fmt.Errorf("decrypting credentials: %w", err)
	}

	var creds Credentials
	if _, err := toml.NewDecoder(r).Decode(&creds); err != nil {
		return Credentials{}, fmt.Errorf("decoding credentials: %w", err)
	}
	if !creds.Valid() {
		return Credentials{}, missing("stored credentials are incomplete")
	}
	return creds, nil
}

// Has reports whether the credentials file exists.
func (s *AgeStore) Has() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

// Delete removes the credentials file.
func (s *AgeStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}

func (s *AgeStore) askPassphrase() (string, error) {
	if s.passphrase == nil {
		return "", fmt.Errorf("no passphrase source configured")
	}
	pass, err := s.passphrase()
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if pass == "" {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	return pass, nil
}
