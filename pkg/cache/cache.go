// Package cache provides snapshot persistence backends.
//
// The [Cache] interface is a plain byte store with TTL expiry; [Store]
// layers typed snapshot encoding and keying on top of it. Two backends
// are provided: a file cache for CLI usage and a Redis cache for server
// deployments, plus a null cache for disabling persistence entirely.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
//
// Get returns (nil, false, nil) on a miss; an error is reserved for
// backend failures. A zero TTL on Set stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
