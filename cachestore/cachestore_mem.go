package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemCacheStore keeps JSON-encoded entries in a bounded, expiring LRU.
type MemCacheStore struct {
	entries *expirable.LRU[string, []byte]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, ttl time.Duration) *MemCacheStore {
	return &MemCacheStore{
		entries: expirable.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

func (s *MemCacheStore) Load(ctx context.Context, ns, key string, dst any) (bool, error) {
	k := entryKey(ns, key)
	raw, ok := s.entries.Get(k)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// an entry that no longer decodes is dropped rather than served again
		s.entries.Remove(k)
		return false, fmt.Errorf("decoding cache entry %s: %w", k, err)
	}
	return true, nil
}

func (s *MemCacheStore) Store(ctx context.Context, ns, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	s.entries.Add(entryKey(ns, key), raw)
	return nil
}

func (s *MemCacheStore) Forget(ctx context.Context, ns, key string) error {
	s.entries.Remove(entryKey(ns, key))
	return nil
}

// Len is the number of live entries across all namespaces.
func (s *MemCacheStore) Len() int {
	return s.entries.Len()
}
