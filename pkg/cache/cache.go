// Package cache provides byte-oriented caching for registry metadata and
// fetched manifests.
//
// Backends:
//   - [FileCache]: one JSON file per entry, for CLI usage
//   - [RedisCache]: shared cache for multi-instance API deployments
//   - [NullCache]: never stores anything; used with --no-cache and in tests
//
// Keys are built by a [Keyer] so that every component namespaces its
// entries the same way.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss or
	// when the entry has expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
