package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a cache key does not exist
var ErrCacheMiss = errors.New("cache entry not found")

// CacheEntry is a write-once memoized upstream response. KeyHash is the
// fixed-width hex digest of the canonical request signature; Payload is the
// raw response body as fetched. Entries are never mutated or expired.
type CacheEntry struct {
	KeyHash   string    `badgerhold:"key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// CacheStorage is a content-addressed, write-once response cache.
// Concurrent writers racing on the same key are tolerated: entries are
// immutable once written, so a lost update at worst duplicates a write.
type CacheStorage interface {
	// Exists reports whether an entry is present for the key hash
	Exists(ctx context.Context, keyHash string) bool

	// Get retrieves the payload for a key hash, ErrCacheMiss if absent
	Get(ctx context.Context, keyHash string) ([]byte, error)

	// Put stores a payload under a key hash. Idempotent, last writer wins.
	Put(ctx context.Context, keyHash string, payload []byte) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	CacheStorage() CacheStorage
	Close() error
}
