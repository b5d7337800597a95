package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedScorer struct {
	lk     sync.Mutex
	scores ScoreVector
	err    error
	delay  time.Duration
	calls  int
}

func (f *fixedScorer) Score(ctx context.Context, text string) (ScoreVector, error) {
	f.lk.Lock()
	f.calls++
	f.lk.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ScoreVector{}, ctx.Err()
		}
	}
	return f.scores, f.err
}

func TestShouldAutoFlag(t *testing.T) {
	assert := assert.New(t)

	assert.False(ShouldAutoFlag(ScoreVector{}))
	assert.True(ShouldAutoFlag(ScoreVector{Toxicity: 0.75, Threat: 0.1, SexuallyExplicit: 0.1}))
	assert.True(ShouldAutoFlag(ScoreVector{Threat: 0.61}))
	assert.True(ShouldAutoFlag(ScoreVector{SexuallyExplicit: 0.9}))
	// threshold is strict
	assert.False(ShouldAutoFlag(ScoreVector{Toxicity: 0.6, Threat: 0.6, SexuallyExplicit: 0.6}))
}

func TestFormatScores(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("Scores: toxicity=0.75 sexually_explicit=0.10 threat=0.00", FormatScores(ScoreVector{Toxicity: 0.75, SexuallyExplicit: 0.1}))
}

func TestGateEvaluate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	sc := &fixedScorer{scores: ScoreVector{Toxicity: 0.75, Threat: 0.1, SexuallyExplicit: 0.1}}
	g := NewGate(sc, time.Second, nil)
	scores, flagged := g.Evaluate(ctx, "you are awful")
	assert.True(flagged)
	assert.NotNil(scores)
	assert.Equal(0.75, scores.Toxicity)
	assert.Equal(1, sc.calls)

	sc.scores = ScoreVector{Toxicity: 0.2}
	scores, flagged = g.Evaluate(ctx, "hello")
	assert.False(flagged)
	assert.NotNil(scores)
}

func TestGateFailsOpen(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	g := NewGate(&fixedScorer{err: errors.New("backend down")}, time.Second, nil)
	scores, flagged := g.Evaluate(ctx, "anything")
	assert.False(flagged)
	assert.Nil(scores)

	slow := &fixedScorer{scores: ScoreVector{Threat: 0.99}, delay: time.Second}
	g = NewGate(slow, 10*time.Millisecond, nil)
	scores, flagged = g.Evaluate(ctx, "anything")
	assert.False(flagged)
	assert.Nil(scores)

	var nilGate *Gate
	_, flagged = nilGate.Evaluate(ctx, "anything")
	assert.False(flagged)
}
