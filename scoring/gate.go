package scoring

import (
	"context"
	"log/slog"
	"time"
)

const defaultGateTimeout = 5 * time.Second

// Gate wraps a Scorer with a bounded timeout and the auto-flag decision.
//
// Scoring failures never block message handling: on error or timeout the gate reports "not flagged".
type Gate struct {
	Scorer  Scorer
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewGate(scorer Scorer, timeout time.Duration, logger *slog.Logger) *Gate {
	if timeout <= 0 {
		timeout = defaultGateTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		Scorer:  scorer,
		Timeout: timeout,
		Logger:  logger.With("component", "gate"),
	}
}

// Evaluate scores text and returns the vector (nil when scoring failed) along with the auto-flag decision.
func (g *Gate) Evaluate(ctx context.Context, text string) (*ScoreVector, bool) {
	if g == nil || g.Scorer == nil {
		return nil, false
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = defaultGateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	scores, err := g.Scorer.Score(ctx, text)
	if err != nil {
		logger := g.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("scoring failed, not auto-flagging", "err", err)
		gateEvaluations.WithLabelValues("failed").Inc()
		return nil, false
	}
	flagged := ShouldAutoFlag(scores)
	if flagged {
		gateEvaluations.WithLabelValues("flagged").Inc()
	} else {
		gateEvaluations.WithLabelValues("clear").Inc()
	}
	return &scores, flagged
}
