package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bluesky-social/warden/cachestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const perspectiveRespExample = `{
  "attributeScores": {
    "TOXICITY": {"summaryScore": {"value": 0.75, "type": "PROBABILITY"}},
    "SEXUALLY_EXPLICIT": {"summaryScore": {"value": 0.1, "type": "PROBABILITY"}},
    "THREAT": {"summaryScore": {"value": 0.05, "type": "PROBABILITY"}}
  },
  "languages": ["en"]
}`

func testPerspectiveServer(t *testing.T, status int, body string, hits *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		assert.Equal(t, "/v1alpha1/comments:analyze", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req perspectiveRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.RequestedAttributes, attrToxicity)
		assert.Contains(t, req.RequestedAttributes, attrSexuallyExplicit)
		assert.Contains(t, req.RequestedAttributes, attrThreat)

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestPerspectiveScore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	hits := 0
	srv := testPerspectiveServer(t, http.StatusOK, perspectiveRespExample, &hits)
	defer srv.Close()

	pc := NewPerspectiveClient("test-key", srv.URL, 100)
	scores, err := pc.Score(ctx, "you are awful")
	require.NoError(t, err)
	assert.Equal(0.75, scores.Toxicity)
	assert.Equal(0.1, scores.SexuallyExplicit)
	assert.Equal(0.05, scores.Threat)
	assert.True(ShouldAutoFlag(scores))
}

func TestPerspectiveErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	hits := 0
	srv := testPerspectiveServer(t, http.StatusBadRequest, `{"error":{}}`, &hits)
	defer srv.Close()
	pc := NewPerspectiveClient("test-key", srv.URL, 100)
	_, err := pc.Score(ctx, "hello")
	assert.Error(err)

	partial := testPerspectiveServer(t, http.StatusOK, `{"attributeScores":{"TOXICITY":{"summaryScore":{"value":0.2}}}}`, &hits)
	defer partial.Close()
	pc = NewPerspectiveClient("test-key", partial.URL, 100)
	_, err = pc.Score(ctx, "hello")
	assert.Error(err)
}

func TestCachingScorer(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	inner := &fixedScorer{scores: ScoreVector{Threat: 0.8}}
	cs := &CachingScorer{
		Inner: inner,
		Cache: cachestore.NewMemCacheStore(100, time.Minute),
	}

	for i := 0; i < 3; i++ {
		scores, err := cs.Score(ctx, "same text")
		assert.NoError(err)
		assert.Equal(0.8, scores.Threat)
	}
	assert.Equal(1, inner.calls)

	_, err := cs.Score(ctx, "different text")
	assert.NoError(err)
	assert.Equal(2, inner.calls)

	assert.Equal(textHash("same text"), textHash("same text"))
	assert.Len(textHash("same text"), 16)
}

type unavailableCache struct{}

func (unavailableCache) Load(ctx context.Context, ns, key string, dst any) (bool, error) {
	return false, errors.New("cache offline")
}

func (unavailableCache) Store(ctx context.Context, ns, key string, val any) error {
	return errors.New("cache offline")
}

func (unavailableCache) Forget(ctx context.Context, ns, key string) error {
	return nil
}

func TestCachingScorerCacheUnavailable(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	inner := &fixedScorer{scores: ScoreVector{Toxicity: 0.3}}
	cs := &CachingScorer{Inner: inner, Cache: unavailableCache{}}

	for i := 0; i < 2; i++ {
		scores, err := cs.Score(ctx, "same text")
		assert.NoError(err)
		assert.Equal(0.3, scores.Toxicity)
	}
	assert.Equal(2, inner.calls)
}
