// Package cache stores computed layouts so an unchanged graph with unchanged
// settings is not simulated twice.
//
// A [Cache] is a byte store with optional expiry. [FileCache] serves the
// CLI, [RedisCache] a shared server deployment, and [NullCache] disables
// caching. Keys come from a [Keyer], which hashes everything a layout
// result depends on.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
//
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the data stored under key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the cache's resources.
	Close() error
}
