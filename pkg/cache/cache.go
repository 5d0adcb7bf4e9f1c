// Package cache stores small values on disk between uptix runs.
//
// uptix caches content hashes computed by nix-prefetch-git: hashing a
// repository means cloning it, and the hash of a given commit never
// changes. Entries are keyed by [Key] and may carry a TTL.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store.
type Cache interface {
	// Get returns the value for key. hit is false for missing and
	// expired entries.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
