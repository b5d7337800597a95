package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bluesky-social/warden/cachestore"

	"github.com/spaolacci/murmur3"
)

const scoreCacheNamespace = "scores"

// CachingScorer memoizes another Scorer by a hash of the message text.
//
// Cache read and write failures are logged and fall through to the inner scorer.
type CachingScorer struct {
	Inner Scorer
	Cache cachestore.CacheStore
}

// current implementation uses murmur3, default seed, and hex encoding
func textHash(s string) string {
	return fmt.Sprintf("%016x", murmur3.Sum64([]byte(s)))
}

func (cs *CachingScorer) Score(ctx context.Context, text string) (ScoreVector, error) {
	key := textHash(text)
	var cached ScoreVector
	found, err := cs.Cache.Load(ctx, scoreCacheNamespace, key, &cached)
	switch {
	case err != nil:
		scoreCacheCount.WithLabelValues("error").Inc()
		slog.Warn("score cache read failed", "key", key, "err", err)
	case found:
		scoreCacheCount.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		scoreCacheCount.WithLabelValues("miss").Inc()
	}

	scores, err := cs.Inner.Score(ctx, text)
	if err != nil {
		return ScoreVector{}, err
	}
	if err := cs.Cache.Store(ctx, scoreCacheNamespace, key, scores); err != nil {
		slog.Warn("score cache write failed", "key", key, "err", err)
	}
	return scores, nil
}
