package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bluesky-social/warden/util"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const DefaultPerspectiveHost = "https://commentanalyzer.googleapis.com"

// Client for the Perspective Comment Analyzer API.
//
// docs: https://developers.perspectiveapi.com/s/about-the-api-methods
type PerspectiveClient struct {
	Client  *http.Client
	APIKey  string
	Host    string
	Limiter *rate.Limiter
}

type perspectiveRequest struct {
	Comment             perspectiveComment  `json:"comment"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
	DoNotStore          bool                `json:"doNotStore"`
}

type perspectiveComment struct {
	Text string `json:"text"`
}

type perspectiveResponse struct {
	AttributeScores map[string]perspectiveAttribute `json:"attributeScores"`
}

type perspectiveAttribute struct {
	SummaryScore struct {
		Value float64 `json:"value"`
	} `json:"summaryScore"`
}

const (
	attrToxicity         = "TOXICITY"
	attrSexuallyExplicit = "SEXUALLY_EXPLICIT"
	attrThreat           = "THREAT"
)

// NewPerspectiveClient builds a client against host (DefaultPerspectiveHost when empty), limited to ratePerSecond requests.
func NewPerspectiveClient(apiKey, host string, ratePerSecond float64) *PerspectiveClient {
	if host == "" {
		host = DefaultPerspectiveHost
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &PerspectiveClient{
		Client:  util.RobustHTTPClient(),
		APIKey:  apiKey,
		Host:    host,
		Limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}
}

func (pc *PerspectiveClient) Score(ctx context.Context, text string) (ScoreVector, error) {
	if pc.Limiter != nil {
		if err := pc.Limiter.Wait(ctx); err != nil {
			return ScoreVector{}, fmt.Errorf("waiting for perspective rate limit: %w", err)
		}
	}

	body, err := json.Marshal(perspectiveRequest{
		Comment: perspectiveComment{Text: text},
		RequestedAttributes: map[string]struct{}{
			attrToxicity:         {},
			attrSexuallyExplicit: {},
			attrThreat:           {},
		},
		DoNotStore: true,
	})
	if err != nil {
		return ScoreVector{}, err
	}

	u := fmt.Sprintf("%s/v1alpha1/comments:analyze?key=%s", pc.Host, url.QueryEscape(pc.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return ScoreVector{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "warden/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		perspectiveAPIDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := pc.Client.Do(req)
	if err != nil {
		return ScoreVector{}, fmt.Errorf("perspective request failed: %w", err)
	}
	defer res.Body.Close()

	perspectiveAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != http.StatusOK {
		return ScoreVector{}, fmt.Errorf("perspective request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return ScoreVector{}, fmt.Errorf("failed to read perspective resp body: %w", err)
	}
	var respObj perspectiveResponse
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return ScoreVector{}, fmt.Errorf("failed to parse perspective resp JSON: %w", err)
	}

	for _, attr := range []string{attrToxicity, attrSexuallyExplicit, attrThreat} {
		if _, ok := respObj.AttributeScores[attr]; !ok {
			return ScoreVector{}, fmt.Errorf("perspective response missing attribute %s", attr)
		}
	}
	scores := ScoreVector{
		Toxicity:         respObj.AttributeScores[attrToxicity].SummaryScore.Value,
		SexuallyExplicit: respObj.AttributeScores[attrSexuallyExplicit].SummaryScore.Value,
		Threat:           respObj.AttributeScores[attrThreat].SummaryScore.Value,
	}
	slog.Debug("perspective-response", "scores", scores)
	return scores, nil
}
