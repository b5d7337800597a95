package cachestore

import (
	"context"
)

// CacheStore holds short-lived values grouped by namespace. Implementations own the encoding, so callers store and load
// their own types.
type CacheStore interface {
	// Load decodes the entry for (ns, key) into dst. It reports false, with no error, when there is no entry.
	Load(ctx context.Context, ns, key string, dst any) (bool, error)
	Store(ctx context.Context, ns, key string, val any) error
	Forget(ctx context.Context, ns, key string) error
}

func entryKey(ns, key string) string {
	return ns + "/" + key
}
