package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/bluesky-social/warden/util"

	"github.com/carlmjohnson/versioninfo"
)

const DefaultHiveHost = "https://api.thehive.ai"

type HiveAIClient struct {
	Client   *http.Client
	ApiToken string
	Host     string
}

var _ Classifier = (*HiveAIClient)(nil)

func NewHiveAIClient(token, host string) *HiveAIClient {
	if host == "" {
		host = DefaultHiveHost
	}
	return &HiveAIClient{
		Client:   util.RobustHTTPClient(),
		ApiToken: token,
		Host:     host,
	}
}

// ClassifySynthetic submits a media URL to the Hive AI-generated media model.
func (hal *HiveAIClient) ClassifySynthetic(ctx context.Context, resourceURL string) (bool, error) {
	slog.Debug("sending media URL to Hive AI", "url", resourceURL)

	// hive sync tasks take the media reference as a multipart form field
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("url", resourceURL); err != nil {
		return false, err
	}
	if err := writer.Close(); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hal.Host+"/api/v2/task/sync", body)
	if err != nil {
		return false, err
	}

	start := time.Now()
	defer func() {
		hiveAPIDuration.Observe(time.Since(start).Seconds())
	}()

	req.Header.Set("Authorization", fmt.Sprintf("Token %s", hal.ApiToken))
	req.Header.Add("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "warden/"+versioninfo.Short())

	res, err := hal.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("HiveAI request failed: %w", err)
	}
	defer res.Body.Close()

	hiveAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HiveAI request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read HiveAI resp body: %w", err)
	}

	var respObj HiveAIResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return false, fmt.Errorf("failed to parse HiveAI resp JSON: %w", err)
	}
	slog.Info("hive-ai-response", "url", resourceURL, "ai_generated", respObj.MaxSyntheticScore())
	return respObj.IsSynthetic(), nil
}

// ClassifyAny runs the classifier over every resource and reports whether any is synthetic.
//
// Individual failures are skipped; an error is returned only if no resource could be classified.
func ClassifyAny(ctx context.Context, c Classifier, resources []string) (bool, error) {
	var lastErr error
	classified := 0
	for _, r := range resources {
		synthetic, err := c.ClassifySynthetic(ctx, r)
		if err != nil {
			slog.Warn("media classification failed", "url", r, "err", err)
			lastErr = err
			continue
		}
		classified++
		if synthetic {
			return true, nil
		}
	}
	if classified == 0 && lastErr != nil {
		return false, lastErr
	}
	return false, nil
}
