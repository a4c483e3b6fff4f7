package publish

import (
	"context"
	"io"
)

// ObjectStore is the remote side of a publish: a flat key space of objects
// carrying a content fingerprint.
type ObjectStore interface {
	// List returns every object under prefix mapped to its fingerprint,
	// unquoted. It pages through the whole listing before returning.
	List(ctx context.Context, prefix string) (map[string]string, error)

	// Put stores size bytes read from r at key.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
}

// Invalidator requests CDN cache invalidation.
type Invalidator interface {
	// Invalidate asks the CDN to drop cached copies matching path.
	// callerRef makes the request idempotent.
	Invalidate(ctx context.Context, distributionID, path, callerRef string) error
}
