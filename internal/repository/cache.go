// Package repository defines data access interfaces for Sebastian Contacts.
package repository

import (
	"context"
	"time"
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache defines the interface for caching operations. Implemented by
// Redis for multi-node deployments and by an in-memory cache for
// single-node and test use. The auth layer uses it to cache resolved
// principals keyed by a digest of the session token.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Common Cache Keys
// =============================================================================

// CacheKey generates cache keys for common scenarios.
type CacheKey struct{}

// Principal returns a cache key for a resolved principal. The argument
// must be a digest of the session token, never the raw token.
func (CacheKey) Principal(tokenDigest string) string {
	return "cache:principal:" + tokenDigest
}
