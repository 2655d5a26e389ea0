// Package cache provides the byte caches used by the render pipeline.
//
// The pipeline memoizes base64-encoded asset bytes across compositions
// (the same product image appears in many compositions) and can persist
// encodings across runs. Three backends are provided:
//
//   - MemoryCache: process-lifetime, thread-safe, never evicts
//   - FileCache: directory-backed, survives across runs, TTL-aware
//   - NullCache: disables caching entirely
//
// All backends implement the Cache interface and can be injected into the
// pipeline, which keeps caching out of global state and makes parallel
// rendering and deterministic tests possible.
package cache

import (
	"context"
	"time"
)

// TTL values for the cache entry classes used by the composer.
const (
	// TTLAssetEncoding applies to base64-encoded asset bytes. Assets are
	// addressed by absolute path and re-read when missing, so a long TTL
	// is safe.
	TTLAssetEncoding = 7 * 24 * time.Hour

	// TTLForever marks entries that never expire (bounded by process or
	// cache-directory lifetime).
	TTLForever = time.Duration(0)
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
