package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultRegion is used when the remote section does not name one.
const DefaultRegion = "ap-southeast-2"

// Config represents the main configuration for afterglow.
type Config struct {
	Workspace   string            `toml:"workspace"`
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	StagingDir  string            `toml:"staging_dir,omitempty"` // parent for per-plan temp dirs; empty = os.TempDir()
	Remote      RemoteConfig      `toml:"remote"`
	CDN         CDNConfig         `toml:"cdn"`
	Credentials CredentialsConfig `toml:"credentials"`
	History     HistoryConfig     `toml:"history"`
}

// RemoteConfig represents configuration for the publish target.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type   string `toml:"type"`   // "s3", "filesystem", or "memory"
	Prefix string `toml:"prefix"` // remote root prefix, e.g. "" or "site/"

	// S3-specific fields (only used when Type == "s3")
	Bucket string `toml:"bucket,omitempty"` // bucket name or S3 ARN
	Region string `toml:"region,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// CDNConfig holds the CloudFront distribution to invalidate after a publish.
type CDNConfig struct {
	DistributionID string `toml:"distribution_id"` // id or CloudFront ARN; empty disables invalidation
}

// CredentialsConfig selects where AWS credentials are kept.
type CredentialsConfig struct {
	Type string `toml:"type"`           // "age" (default) or "env"
	Path string `toml:"path,omitempty"` // only used for type=age
}

// HistoryConfig represents configuration for the publish history log.
type HistoryConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(workspace, baseDir string) *Config {
	return &Config{
		Workspace: workspace,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Remote: RemoteConfig{
			Type:   "s3",
			Region: DefaultRegion,
		},
		Credentials: CredentialsConfig{
			Type: "age",
			Path: filepath.Join(baseDir, "keys", "credentials.age"),
		},
		History: HistoryConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
	}
}

// BucketName returns the configured bucket with any ARN wrapping removed.
func (c *Config) BucketName() string {
	return ExtractBucketName(c.Remote.Bucket)
}

// DistributionID returns the configured CloudFront distribution id with any ARN wrapping removed.
func (c *Config) DistributionID() string {
	return ExtractDistributionID(c.CDN.DistributionID)
}

// Region returns the configured region, falling back to DefaultRegion.
func (c *Config) Region() string {
	if c.Remote.Region == "" {
		return DefaultRegion
	}
	return c.Remote.Region
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
