package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// CacheStorage implements the CacheStorage interface for Badger
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

// Exists reports whether an entry is present for the key hash
func (s *CacheStorage) Exists(ctx context.Context, keyHash string) bool {
	var entry interfaces.CacheEntry
	err := s.db.Store().Get(keyHash, &entry)
	return err == nil
}

// Get retrieves the cached payload for the key hash
func (s *CacheStorage) Get(ctx context.Context, keyHash string) ([]byte, error) {
	var entry interfaces.CacheEntry
	err := s.db.Store().Get(keyHash, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	s.logger.Debug().Str("key_hash", keyHash).Int("bytes", len(entry.Payload)).Msg("Cache hit")
	return entry.Payload, nil
}

// Put stores a payload under the key hash, replacing any existing entry
func (s *CacheStorage) Put(ctx context.Context, keyHash string, payload []byte) error {
	entry := interfaces.CacheEntry{
		KeyHash:   keyHash,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(keyHash, &entry); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	s.logger.Debug().Str("key_hash", keyHash).Int("bytes", len(payload)).Msg("Cache entry stored")
	return nil
}
