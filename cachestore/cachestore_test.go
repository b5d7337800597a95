package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testEntry struct {
	Toxicity float64 `json:"toxicity"`
	Labels   []string
}

func TestMemCacheStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, time.Minute)

	var got testEntry
	found, err := cs.Load(ctx, "scores", "abc", &got)
	assert.NoError(err)
	assert.False(found)

	stored := testEntry{Toxicity: 0.5, Labels: []string{"a"}}
	assert.NoError(cs.Store(ctx, "scores", "abc", stored))
	found, err = cs.Load(ctx, "scores", "abc", &got)
	assert.NoError(err)
	assert.True(found)
	assert.Equal(stored, got)

	// loaded values do not alias the stored entry
	got.Labels[0] = "changed"
	var again testEntry
	_, err = cs.Load(ctx, "scores", "abc", &again)
	assert.NoError(err)
	assert.Equal("a", again.Labels[0])

	// namespaces are isolated
	found, err = cs.Load(ctx, "other", "abc", &got)
	assert.NoError(err)
	assert.False(found)

	assert.NoError(cs.Forget(ctx, "scores", "abc"))
	found, err = cs.Load(ctx, "scores", "abc", &got)
	assert.NoError(err)
	assert.False(found)
	assert.Equal(0, cs.Len())
}

func TestMemCacheStoreUndecodableEntry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, time.Minute)
	assert.NoError(cs.Store(ctx, "scores", "abc", "not an object"))

	var got testEntry
	found, err := cs.Load(ctx, "scores", "abc", &got)
	assert.Error(err)
	assert.False(found)
	assert.Equal(0, cs.Len())

	assert.Error(cs.Store(ctx, "scores", "bad", make(chan int)))
}

func TestMemCacheStoreExpiry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, 10*time.Millisecond)
	assert.NoError(cs.Store(ctx, "scores", "abc", testEntry{Toxicity: 0.1}))
	assert.Eventually(func() bool {
		var got testEntry
		found, _ := cs.Load(ctx, "scores", "abc", &got)
		return !found
	}, time.Second, 5*time.Millisecond)
}
