package grsai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// pollResult exchanges a deferred task handle for an image by querying the
// result endpoint on a fixed cadence. It resolves on the first successful
// response, fails immediately when the provider reports failure and gives up
// with ErrGenerationTimedOut once the attempt cap is exhausted. The waits
// between attempts honor context cancellation.
func (c *Client) pollResult(ctx context.Context, taskID string) (*Artifact, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		artifact, done, err := c.queryResult(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if done {
			return artifact, nil
		}
		c.logger.Debug().Str("task_id", taskID).Int("attempt", attempt+1).Msg("grsai: task still pending")
	}
	return nil, ErrGenerationTimedOut
}

// queryResult performs one result query. done is false while the task is
// still pending.
func (c *Client) queryResult(ctx context.Context, taskID string) (*Artifact, bool, error) {
	payload, err := json.Marshal(map[string]string{"task_id": taskID})
	if err != nil {
		return nil, false, fmt.Errorf("grsai: encode result query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+resultPath, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("grsai: build result query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("grsai: result query: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "image/") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("grsai: read result image: %w", err)
		}
		return binaryArtifact(data, contentType, EncodingTaskPoll), true, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("grsai: read result response: %w", err)
	}
	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "{") {
		if strings.HasPrefix(text, "data:") {
			return wrapImageData(text, EncodingTaskPoll), true, nil
		}
		return nil, false, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, snippet(body))
	}

	var result drawResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, snippet(body))
	}
	switch {
	case result.Status == "succeeded" && len(result.Results) > 0 && strings.TrimSpace(result.Results[0].URL) != "":
		artifact, err := c.fetchArtifact(ctx, result.Results[0].URL, EncodingTaskPoll)
		if err != nil {
			return nil, false, err
		}
		return artifact, true, nil
	case result.Status == "failed" || result.Data.Status == "failed":
		return nil, false, &GenerationError{Reason: result.failureReason()}
	case result.Code != nil && *result.Code == 0 && result.Data.Image != "":
		return wrapImageData(result.Data.Image, EncodingTaskPoll), true, nil
	}
	return nil, false, nil
}
