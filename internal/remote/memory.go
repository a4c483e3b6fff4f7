package remote

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"afterglow/internal/publish"
)

type memoryObject struct {
	data        []byte
	etag        string
	contentType string
}

// MemoryStore is an in-memory implementation of publish.ObjectStore.
// It is useful for testing and is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string]memoryObject
	putErr    map[string]error
	deleteErr map[string]error
	puts      int
	deletes   int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:   make(map[string]memoryObject),
		putErr:    make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

// Seed stores data at key as if it had been uploaded earlier.
func (m *MemoryStore) Seed(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, etag: md5Hex(data)}
}

// SeedETag stores an object with an explicit fingerprint, e.g. a multipart
// ETag.
func (m *MemoryStore) SeedETag(key, etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{etag: etag}
}

// SetPutError makes every Put of key fail with err.
func (m *MemoryStore) SetPutError(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr[key] = err
}

// SetDeleteError makes every Delete of key fail with err.
func (m *MemoryStore) SetDeleteError(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr[key] = err
}

func (m *MemoryStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string)
	for k, obj := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out[k] = obj.etag
		}
	}
	return out, nil
}

func (m *MemoryStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.putErr[key]; err != nil {
		return err
	}
	m.objects[key] = memoryObject{data: data, etag: md5Hex(data), contentType: contentType}
	m.puts++
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	m.deletes++
	return nil
}

// Get returns the stored bytes and content type for key.
func (m *MemoryStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}

// Keys returns every stored key, sorted.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many Put and Delete calls succeeded.
func (m *MemoryStore) Calls() (puts, deletes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts, m.deletes
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Compile-time check that MemoryStore implements publish.ObjectStore interface
var _ publish.ObjectStore = (*MemoryStore)(nil)
