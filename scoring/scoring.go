// Text-risk scoring and the auto-flag decision built on top of it.
package scoring

import (
	"context"
	"fmt"
)

// AutoFlagThreshold is the per-attribute score a message must exceed to be auto-flagged.
const AutoFlagThreshold = 0.6

// ScoreVector holds independent risk probabilities, each in [0,1].
type ScoreVector struct {
	Toxicity         float64 `json:"toxicity"`
	SexuallyExplicit float64 `json:"sexually_explicit"`
	Threat           float64 `json:"threat"`
}

// Scorer is implemented by text-risk scoring backends.
type Scorer interface {
	Score(ctx context.Context, text string) (ScoreVector, error)
}

// ShouldAutoFlag is true iff any single score is strictly above AutoFlagThreshold.
func ShouldAutoFlag(s ScoreVector) bool {
	return s.Toxicity > AutoFlagThreshold || s.SexuallyExplicit > AutoFlagThreshold || s.Threat > AutoFlagThreshold
}

// FormatScores renders a score vector as a single line for moderator-facing posts.
func FormatScores(s ScoreVector) string {
	return fmt.Sprintf("Scores: toxicity=%.2f sexually_explicit=%.2f threat=%.2f", s.Toxicity, s.SexuallyExplicit, s.Threat)
}
