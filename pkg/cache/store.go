package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forgestats/forgestats/pkg/observability"
	"github.com/forgestats/forgestats/pkg/stats"
)

// DefaultSnapshotTTL is how long a stored snapshot stays usable as the
// baseline for conditional re-fetch.
const DefaultSnapshotTTL = 24 * time.Hour

// SnapshotKey returns the store key for a repository's latest snapshot.
// One snapshot is kept per repository; a new one overwrites the last.
func SnapshotKey(ref stats.RepositoryRef) string {
	return fmt.Sprintf("snapshot:%s", ref)
}

// Store is a typed snapshot store over a byte cache.
type Store struct {
	cache Cache
	ttl   time.Duration
}

// NewStore wraps a cache. A nil cache disables persistence; a zero ttl
// uses DefaultSnapshotTTL.
func NewStore(c Cache, ttl time.Duration) *Store {
	if c == nil {
		c = NewNullCache()
	}
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Store{cache: c, ttl: ttl}
}

// Load returns the stored snapshot for a repository, or nil on a miss.
// A corrupt entry is dropped and treated as a miss.
func (s *Store) Load(ctx context.Context, ref stats.RepositoryRef) (*stats.RepositorySnapshot, error) {
	key := SnapshotKey(ref)
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, nil
	}

	var snap stats.RepositorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = s.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, nil
	}
	observability.Cache().OnCacheHit(ctx, "snapshot")
	return &snap, nil
}

// Save stores a snapshot as the repository's latest.
func (s *Store) Save(ctx context.Context, snap *stats.RepositorySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, SnapshotKey(snap.Repo), data, s.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
	return nil
}

// Delete removes a repository's stored snapshot.
func (s *Store) Delete(ctx context.Context, ref stats.RepositoryRef) error {
	return s.cache.Delete(ctx, SnapshotKey(ref))
}

// Close closes the underlying cache.
func (s *Store) Close() error {
	return s.cache.Close()
}
