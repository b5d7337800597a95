package countstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisCountPrefix    = "warden/count/"
	redisDistinctPrefix = "warden/distinct/"
)

type RedisCountStore struct {
	Client *redis.Client
}

var _ CountStore = (*RedisCountStore)(nil)

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisCountStore{Client: rdb}, nil
}

func (s *RedisCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	key := redisCountPrefix + periodBucket(name, val, period, time.Now())
	c, err := s.Client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}

// bucket expirations; totals never expire
var periodTTL = map[string]time.Duration{
	PeriodHour: 2 * time.Hour,
	PeriodDay:  48 * time.Hour,
}

func (s *RedisCountStore) Increment(ctx context.Context, name, val string) error {
	now := time.Now()
	multi := s.Client.Pipeline()
	for _, p := range allPeriods {
		key := redisCountPrefix + periodBucket(name, val, p, now)
		multi.Incr(ctx, key)
		if ttl, ok := periodTTL[p]; ok {
			multi.Expire(ctx, key, ttl)
		}
	}
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisCountStore) GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error) {
	key := redisDistinctPrefix + periodBucket(name, bucket, period, time.Now())
	c, err := s.Client.PFCount(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(c), nil
}

func (s *RedisCountStore) IncrementDistinct(ctx context.Context, name, bucket, val string) error {
	now := time.Now()
	multi := s.Client.Pipeline()
	for _, p := range allPeriods {
		key := redisDistinctPrefix + periodBucket(name, bucket, p, now)
		multi.PFAdd(ctx, key, val)
		if ttl, ok := periodTTL[p]; ok {
			multi.Expire(ctx, key, ttl)
		}
	}
	_, err := multi.Exec(ctx)
	return err
}
