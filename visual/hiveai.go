// Classifiers for media attached to reported messages.
package visual

import (
	"context"
)

// SyntheticThreshold is the minimum "ai_generated" class score for media to be considered synthetic.
const SyntheticThreshold = 0.90

// Classifier decides whether a resource (media URL) is AI-generated.
type Classifier interface {
	ClassifySynthetic(ctx context.Context, resourceURL string) (bool, error)
}

// schema: https://docs.thehive.ai/reference/classification
type HiveAIResp struct {
	Status []HiveAIResp_Status `json:"status"`
}

type HiveAIResp_Status struct {
	Response HiveAIResp_Response `json:"response"`
}

type HiveAIResp_Response struct {
	Output []HiveAIResp_Out `json:"output"`
}

type HiveAIResp_Out struct {
	Time    float64            `json:"time"`
	Classes []HiveAIResp_Class `json:"classes"`
}

type HiveAIResp_Class struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

// MaxSyntheticScore returns the highest "ai_generated" score across all outputs (eg, video frames).
func (resp *HiveAIResp) MaxSyntheticScore() float64 {
	var max float64
	for _, status := range resp.Status {
		for _, out := range status.Response.Output {
			for _, cls := range out.Classes {
				if cls.Class == "ai_generated" && cls.Score > max {
					max = cls.Score
				}
			}
		}
	}
	return max
}

// IsSynthetic is true if any output frame crosses SyntheticThreshold.
func (resp *HiveAIResp) IsSynthetic() bool {
	return resp.MaxSyntheticScore() >= SyntheticThreshold
}
