package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/bluesky-social/warden/flow"
	"github.com/bluesky-social/warden/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoFlaggedSession(t *testing.T, author string) func() *flow.Session {
	return func() *flow.Session {
		s := flow.NewSession(flow.SessionOptions{})
		require.NoError(t, s.ForceAutoFlag(flow.FlaggedMessage{AuthorID: author, Text: "bad"}, scoring.ScoreVector{Threat: 0.9}))
		return s
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	assert := assert.New(t)
	r := NewRegistry()

	s1, created := r.GetOrCreate("alice", func() *flow.Session { return flow.NewSession(flow.SessionOptions{}) })
	assert.True(created)
	s2, created := r.GetOrCreate("alice", func() *flow.Session { t.Fatal("should not create twice"); return nil })
	assert.False(created)
	assert.Same(s1, s2)

	got, ok := r.Get("alice")
	assert.True(ok)
	assert.Same(s1, got)
	_, ok = r.Get("bob")
	assert.False(ok)
	assert.Equal(1, r.Len())
}

func TestRegistryRemove(t *testing.T) {
	assert := assert.New(t)
	r := NewRegistry()
	ctx := context.Background()

	s, _ := r.GetOrCreate("alice", func() *flow.Session { return flow.NewSession(flow.SessionOptions{}) })
	assert.ErrorIs(r.Remove("bob"), ErrUnknownSession)
	assert.ErrorIs(r.Remove("alice"), ErrSessionActive)

	s.HandleMessage(ctx, "cancel")
	assert.NoError(r.Remove("alice"))
	assert.Equal(0, r.Len())
}

func TestRegistryReviewQueue(t *testing.T) {
	assert := assert.New(t)
	r := NewRegistry()

	_, _, err := r.EnqueueReview("nobody")
	assert.ErrorIs(err, ErrUnknownSession)

	r.GetOrCreate("intake", func() *flow.Session { return flow.NewSession(flow.SessionOptions{}) })
	_, _, err = r.EnqueueReview("intake")
	assert.ErrorIs(err, ErrNotInReview)

	for _, k := range []string{"auto:a", "auto:b", "auto:c"} {
		r.GetOrCreate(k, autoFlaggedSession(t, k))
	}

	_, ok := r.CurrentReviewSubject()
	assert.False(ok)

	current, ahead, err := r.EnqueueReview("auto:a")
	assert.NoError(err)
	assert.True(current)
	assert.Equal(0, ahead)

	current, ahead, err = r.EnqueueReview("auto:b")
	assert.NoError(err)
	assert.False(current)
	assert.Equal(1, ahead)

	current, ahead, err = r.EnqueueReview("auto:c")
	assert.NoError(err)
	assert.False(current)
	assert.Equal(2, ahead)
	assert.Equal(2, r.PendingReviews())

	// never queued twice, whether current or waiting
	_, _, err = r.EnqueueReview("auto:a")
	assert.ErrorIs(err, ErrAlreadyQueued)
	_, _, err = r.EnqueueReview("auto:c")
	assert.ErrorIs(err, ErrAlreadyQueued)

	key, ok := r.CurrentReviewSubject()
	assert.True(ok)
	assert.Equal("auto:a", key)

	_, _, err = r.ReleaseReview("auto:b")
	assert.ErrorIs(err, ErrNotReviewSubject)

	next, promoted, err := r.ReleaseReview("auto:a")
	assert.NoError(err)
	assert.True(promoted)
	assert.Equal("auto:b", next)
	assert.Equal(1, r.PendingReviews())

	next, promoted, err = r.ReleaseReview("auto:b")
	assert.NoError(err)
	assert.True(promoted)
	assert.Equal("auto:c", next)

	_, promoted, err = r.ReleaseReview("auto:c")
	assert.NoError(err)
	assert.False(promoted)
	_, ok = r.CurrentReviewSubject()
	assert.False(ok)
}

func TestRegistryReap(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	r := NewRegistry()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	idle, _ := r.GetOrCreate("idle", func() *flow.Session { return flow.NewSession(flow.SessionOptions{Now: clock}) })
	idle.HandleMessage(ctx, "report")
	r.GetOrCreate("auto:x", autoFlaggedSession(t, "x"))

	now = now.Add(30 * time.Minute)
	active, _ := r.GetOrCreate("active", func() *flow.Session { return flow.NewSession(flow.SessionOptions{Now: clock}) })
	active.HandleMessage(ctx, "report")

	now = now.Add(45 * time.Minute)
	reaped := r.Reap(now, time.Hour)
	require.Len(t, reaped, 1)
	assert.Equal("idle", reaped[0].Key)
	assert.Same(idle, reaped[0].Session)

	_, ok := r.Get("active")
	assert.True(ok)
	// moderator-phase sessions are never reaped
	later := r.Reap(now.Add(100*time.Hour), time.Hour)
	require.Len(t, later, 1)
	assert.Equal("active", later[0].Key)
	_, ok = r.Get("auto:x")
	assert.True(ok)
}
