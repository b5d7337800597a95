package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "warden/cache/"

// RedisCacheStore shares entries between warden instances through redis, with a small in-process TinyLFU tier in front.
// Values are msgpack-encoded by go-redis/cache.
type RedisCacheStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

var _ CacheStore = (*RedisCacheStore)(nil)

func NewRedisCacheStore(redisURL string, ttl time.Duration) (*RedisCacheStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisCacheStore{
		cache: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(10_000, ttl),
		}),
		ttl: ttl,
	}, nil
}

func (s *RedisCacheStore) Load(ctx context.Context, ns, key string, dst any) (bool, error) {
	err := s.cache.Get(ctx, redisKeyPrefix+entryKey(ns, key), dst)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

func (s *RedisCacheStore) Store(ctx context.Context, ns, key string, val any) error {
	return s.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisKeyPrefix + entryKey(ns, key),
		Value: val,
		TTL:   s.ttl,
	})
}

func (s *RedisCacheStore) Forget(ctx context.Context, ns, key string) error {
	err := s.cache.Delete(ctx, redisKeyPrefix+entryKey(ns, key))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}
