package countstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, CounterAutoFlag, "user-1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.Increment(ctx, CounterAutoFlag, "user-1"))
	assert.NoError(cs.Increment(ctx, CounterAutoFlag, "user-1"))

	for _, period := range allPeriods {
		c, err = cs.GetCount(ctx, CounterAutoFlag, "user-1", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}

	// same reporter filing twice against one account counts once
	assert.NoError(cs.IncrementDistinct(ctx, CounterReporters, "user-2", "reporter-a"))
	assert.NoError(cs.IncrementDistinct(ctx, CounterReporters, "user-2", "reporter-a"))
	c, err = cs.GetCountDistinct(ctx, CounterReporters, "user-2", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)

	assert.NoError(cs.IncrementDistinct(ctx, CounterReporters, "user-2", "reporter-b"))
	for _, period := range allPeriods {
		c, err = cs.GetCountDistinct(ctx, CounterReporters, "user-2", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}
}

func TestMemCountStoreBucketRollover(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	cs.now = func() time.Time { return now }

	assert.NoError(cs.Increment(ctx, CounterAutoFlag, "user-1"))
	now = now.Add(time.Hour)
	assert.NoError(cs.Increment(ctx, CounterAutoFlag, "user-1"))

	c, err := cs.GetCount(ctx, CounterAutoFlag, "user-1", PeriodHour)
	assert.NoError(err)
	assert.Equal(1, c)
	c, err = cs.GetCount(ctx, CounterAutoFlag, "user-1", PeriodDay)
	assert.NoError(err)
	assert.Equal(2, c)
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	var wg sync.WaitGroup
	fnInc := func(val string, times int) {
		defer wg.Done()
		for i := 0; i < times; i++ {
			assert.NoError(cs.Increment(ctx, CounterAutoFlag, val))
			assert.NoError(cs.IncrementDistinct(ctx, CounterReporters, val, val))
		}
	}
	wg.Add(4)
	go fnInc("user-1", 10)
	go fnInc("user-1", 10)
	go fnInc("user-2", 6)
	go fnInc("user-2", 6)
	wg.Wait()

	c, err := cs.GetCount(ctx, CounterAutoFlag, "user-1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(20, c)
	c, err = cs.GetCount(ctx, CounterAutoFlag, "user-2", PeriodTotal)
	assert.NoError(err)
	assert.Equal(12, c)
	c, err = cs.GetCountDistinct(ctx, CounterReporters, "user-1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestRedisCountStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	cs, err := NewRedisCountStore("redis://localhost:6379/0")
	if err != nil {
		t.Fatal(err)
	}
	assert.NoError(cs.Increment(ctx, CounterAutoFlag, "redis-test"))
	c, err := cs.GetCount(ctx, CounterAutoFlag, "redis-test", PeriodHour)
	assert.NoError(err)
	assert.GreaterOrEqual(c, 1)
}
