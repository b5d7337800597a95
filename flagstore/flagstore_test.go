package flagstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()

	l, err := fs.Get(ctx, "chan-1")
	assert.NoError(err)
	assert.Empty(l)

	assert.NoError(fs.Add(ctx, "chan-1", []string{"red", "green"}))
	assert.NoError(fs.Add(ctx, "chan-1", []string{"red", "blue"}))
	l, err = fs.Get(ctx, "chan-1")
	assert.NoError(err)
	assert.Equal([]string{"blue", "green", "red"}, l)

	assert.NoError(fs.Remove(ctx, "chan-1", []string{"red", "blue", "orange"}))
	l, err = fs.Get(ctx, "chan-1")
	assert.NoError(err)
	assert.Equal([]string{"green"}, l)

	assert.NoError(fs.Remove(ctx, "missing", []string{"green"}))
}

func TestHas(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()
	ok, err := Has(ctx, fs, "chan-1", FlagAutoFlagged)
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(fs.Add(ctx, "chan-1", []string{FlagAutoFlagged}))
	ok, err = Has(ctx, fs, "chan-1", FlagAutoFlagged)
	assert.NoError(err)
	assert.True(ok)

	ok, err = Has(ctx, fs, "chan-2", FlagAutoFlagged)
	assert.NoError(err)
	assert.False(ok)
}

func TestRedisFlagStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	fs, err := NewRedisFlagStore("redis://localhost:6379/0")
	if err != nil {
		t.Fatal(err)
	}

	assert.NoError(fs.Add(ctx, "test1", []string{"red", "green"}))
	assert.NoError(fs.Add(ctx, "test1", []string{"red", "blue"}))
	l, err := fs.Get(ctx, "test1")
	assert.NoError(err)
	assert.Equal(3, len(l))

	assert.NoError(fs.Remove(ctx, "test1", []string{"red", "blue", "orange"}))
	l, err = fs.Get(ctx, "test1")
	assert.NoError(err)
	assert.Equal([]string{"green"}, l)
	assert.NoError(fs.Remove(ctx, "test1", []string{"green"}))
}
