package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"afterglow/internal/config"
	"afterglow/internal/publish"
	"afterglow/internal/testutil"
)

// storeFactories runs the shared behavior tests against every local backend.
var storeFactories = map[string]func(t *testing.T) publish.ObjectStore{
	"memory": func(t *testing.T) publish.ObjectStore { return NewMemoryStore() },
	"filesystem": func(t *testing.T) publish.ObjectStore {
		s, err := NewFileSystemStore(filepath.Join(t.TempDir(), "remote"))
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		return s
	},
}

func TestObjectStore_PutListDelete(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			files := map[string]string{
				"site/galleries/trip/a.jpg": "jpeg a",
				"site/index.html":           "<html>",
				"other/keep.txt":            "not ours",
			}
			for key, data := range files {
				if err := s.Put(ctx, key, publish.ContentType(key), strings.NewReader(data), int64(len(data))); err != nil {
					t.Fatalf("Put(%s) error = %v", key, err)
				}
			}

			got, err := s.List(ctx, "site/")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("List(site/) returned %d keys, want 2: %v", len(got), got)
			}
			if got["site/galleries/trip/a.jpg"] != testutil.MD5Hex([]byte("jpeg a")) {
				t.Errorf("fingerprint = %q, want MD5 of the content", got["site/galleries/trip/a.jpg"])
			}

			if err := s.Delete(ctx, "site/galleries/trip/a.jpg"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := s.Delete(ctx, "site/galleries/missing.jpg"); err != nil {
				t.Errorf("Delete() of missing key error = %v", err)
			}

			got, err = s.List(ctx, "")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if _, ok := got["site/galleries/trip/a.jpg"]; ok {
				t.Error("deleted key still listed")
			}
			if len(got) != 2 {
				t.Errorf("List(\"\") returned %d keys, want 2: %v", len(got), got)
			}
		})
	}
}

func TestObjectStore_PutSizeMismatch(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			err := s.Put(context.Background(), "site/a.txt", "text/plain", strings.NewReader("hello"), 100)
			if err == nil {
				t.Fatal("Put() expected size mismatch error, got nil")
			}
			got, _ := s.List(context.Background(), "")
			if len(got) != 0 {
				t.Errorf("failed Put left objects behind: %v", got)
			}
		})
	}
}

func TestObjectStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	if _, err := s.List(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("List() error = %v, want context.Canceled", err)
	}
	if err := s.Put(ctx, "k", "text/plain", strings.NewReader("x"), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}

func TestMemoryStore_Hooks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed("site/a.jpg", []byte("a"))
	s.SeedETag("site/big.jpg", "abc-2")
	boom := errors.New("boom")
	s.SetPutError("site/fail.jpg", boom)
	s.SetDeleteError("site/a.jpg", boom)

	got, err := s.List(ctx, "site/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got["site/big.jpg"] != "abc-2" {
		t.Errorf("seeded etag = %q, want abc-2", got["site/big.jpg"])
	}

	if err := s.Put(ctx, "site/fail.jpg", "image/jpeg", strings.NewReader("x"), 1); !errors.Is(err, boom) {
		t.Errorf("Put() error = %v, want boom", err)
	}
	if err := s.Delete(ctx, "site/a.jpg"); !errors.Is(err, boom) {
		t.Errorf("Delete() error = %v, want boom", err)
	}

	if err := s.Put(ctx, "site/b.css", "text/css", strings.NewReader("b{}"), 3); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	data, ct, ok := s.Get("site/b.css")
	if !ok || string(data) != "b{}" || ct != "text/css" {
		t.Errorf("Get() = %q, %q, %v", data, ct, ok)
	}
	if puts, deletes := s.Calls(); puts != 1 || deletes != 0 {
		t.Errorf("Calls() = %d, %d, want 1, 0", puts, deletes)
	}
	if keys := s.Keys(); len(keys) != 3 || keys[0] != "site/a.jpg" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestFileSystemStore_Layout(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "remote")
	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	if err := s.Put(ctx, "galleries/trip/.thumbs/a.webp", "image/webp", strings.NewReader("webp"), 4); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "galleries", "trip", ".thumbs", "a.webp"))
	if err != nil || string(data) != "webp" {
		t.Fatalf("stored file = %q, %v", data, err)
	}

	// Leftover temp files from an interrupted write are not objects.
	if err := os.WriteFile(filepath.Join(root, "galleries", ".tmp-123"), []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List() = %v, want only the thumbnail", got)
	}

	if err := s.Delete(ctx, "galleries/trip/.thumbs/a.webp"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "galleries", "trip")); !os.IsNotExist(err) {
		t.Errorf("empty gallery directory not pruned: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("store root removed: %v", err)
	}
}

func TestFileSystemStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	for _, key := range []string{"", "../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		if err := s.Put(context.Background(), key, "text/plain", strings.NewReader("x"), 1); err == nil {
			t.Errorf("Put(%q) expected error, got nil", key)
		}
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	awsCfg := &aws.Config{Region: "us-west-2"}

	tests := []struct {
		name    string
		remote  config.RemoteConfig
		awsCfg  *aws.Config
		wantErr bool
	}{
		{name: "memory", remote: config.RemoteConfig{Type: "memory"}},
		{name: "filesystem", remote: config.RemoteConfig{Type: "filesystem", FSRoot: t.TempDir()}},
		{name: "filesystem without root", remote: config.RemoteConfig{Type: "filesystem"}, wantErr: true},
		{name: "s3", remote: config.RemoteConfig{Type: "s3", Bucket: "arn:aws:s3:::photos"}, awsCfg: awsCfg},
		{name: "s3 without bucket", remote: config.RemoteConfig{Type: "s3"}, awsCfg: awsCfg, wantErr: true},
		{name: "s3 without credentials", remote: config.RemoteConfig{Type: "s3", Bucket: "photos"}, wantErr: true},
		{name: "unknown", remote: config.RemoteConfig{Type: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Remote: tt.remote}
			got, err := NewStoreFromConfig(cfg, tt.awsCfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got == nil {
				t.Error("NewStoreFromConfig() returned nil store")
			}
		})
	}

	t.Run("s3 store uses the bucket name from an ARN", func(t *testing.T) {
		cfg := &config.Config{Remote: config.RemoteConfig{Type: "s3", Bucket: "arn:aws:s3:::photos/site"}}
		got, err := NewStoreFromConfig(cfg, awsCfg)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		if st := got.(*S3Store); st.bucket != "photos" {
			t.Errorf("bucket = %q, want photos", st.bucket)
		}
	})
}

func TestNewInvalidatorFromConfig(t *testing.T) {
	t.Run("no distribution disables invalidation", func(t *testing.T) {
		got, err := NewInvalidatorFromConfig(&config.Config{}, nil)
		if err != nil || got != nil {
			t.Errorf("NewInvalidatorFromConfig() = %v, %v, want nil, nil", got, err)
		}
	})

	t.Run("distribution without credentials", func(t *testing.T) {
		cfg := &config.Config{CDN: config.CDNConfig{DistributionID: "E123"}}
		if _, err := NewInvalidatorFromConfig(cfg, nil); err == nil {
			t.Error("NewInvalidatorFromConfig() expected error, got nil")
		}
	})

	t.Run("distribution arn", func(t *testing.T) {
		cfg := &config.Config{CDN: config.CDNConfig{DistributionID: "arn:aws:cloudfront::123456789012:distribution/E123"}}
		got, err := NewInvalidatorFromConfig(cfg, &aws.Config{Region: "ap-southeast-2"})
		if err != nil || got == nil {
			t.Errorf("NewInvalidatorFromConfig() = %v, %v, want an invalidator", got, err)
		}
	})
}

func TestNeedsAWS(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want bool
	}{
		{name: "s3 remote", cfg: config.Config{Remote: config.RemoteConfig{Type: "s3"}}, want: true},
		{name: "filesystem remote", cfg: config.Config{Remote: config.RemoteConfig{Type: "filesystem"}}, want: false},
		{name: "filesystem remote with cdn", cfg: config.Config{Remote: config.RemoteConfig{Type: "filesystem"}, CDN: config.CDNConfig{DistributionID: "E1"}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsAWS(&tt.cfg); got != tt.want {
				t.Errorf("NeedsAWS() = %v, want %v", got, tt.want)
			}
		})
	}
}
