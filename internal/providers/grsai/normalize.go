package grsai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// minRawBase64Len is the shortest unlabeled text body that is still assumed to
// be a raw base64 image payload. Anything shorter is a contract violation.
const minRawBase64Len = 1000

type drawResult struct {
	URL string `json:"url"`
}

// drawResponse covers both provider schemas: the current
// {status, results:[{url}]} shape and the legacy {code, data:{...}} shape.
type drawResponse struct {
	Status        string       `json:"status"`
	Results       []drawResult `json:"results"`
	FailureReason string       `json:"failure_reason"`
	ErrorMsg      string       `json:"error"`
	Message       string       `json:"message"`
	Code          *int         `json:"code"`
	TaskID        string       `json:"task_id"`
	Data          struct {
		Image   string `json:"image"`
		TaskID  string `json:"task_id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

func (r *drawResponse) failureReason() string {
	for _, reason := range []string{r.FailureReason, r.ErrorMsg, r.Data.Message, r.Message} {
		if strings.TrimSpace(reason) != "" {
			return reason
		}
	}
	return "unknown error"
}

// normalizeResponse converts a non-streaming provider response into a
// canonical artifact, following a strict precedence: binary image, JSON
// (current schema, then legacy, then deferred task), then raw text.
func (c *Client) normalizeResponse(ctx context.Context, contentType string, body []byte) (*Artifact, error) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return binaryArtifact(body, contentType, EncodingBinary), nil
	case strings.HasPrefix(contentType, "application/json"):
		return c.normalizeJSON(ctx, body, true)
	default:
		return c.normalizeText(ctx, body)
	}
}

// normalizeJSON applies the rule-3 precedence. allowPoll controls whether a
// task id may defer to the polling reader; poll responses themselves must not
// recurse.
func (c *Client) normalizeJSON(ctx context.Context, body []byte, allowPoll bool) (*Artifact, error) {
	var resp drawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, snippet(body))
	}
	switch {
	case resp.Status == "succeeded" && len(resp.Results) > 0 && strings.TrimSpace(resp.Results[0].URL) != "":
		return c.fetchArtifact(ctx, resp.Results[0].URL, EncodingResultURL)
	case resp.Status == "failed" || resp.Data.Status == "failed":
		return nil, &GenerationError{Reason: resp.failureReason()}
	case resp.Code != nil && *resp.Code == 0 && resp.Data.Image != "":
		return wrapImageData(resp.Data.Image, EncodingJSONImage), nil
	case resp.Code != nil && *resp.Code == 0 && resp.Data.TaskID != "":
		if !allowPoll {
			return nil, fmt.Errorf("%w: nested task id %s", ErrNoImageInResponse, resp.Data.TaskID)
		}
		return c.pollResult(ctx, resp.Data.TaskID)
	case resp.TaskID != "":
		if !allowPoll {
			return nil, fmt.Errorf("%w: nested task id %s", ErrNoImageInResponse, resp.TaskID)
		}
		return c.pollResult(ctx, resp.TaskID)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoImageInResponse, snippet(body))
}

// normalizeText handles unlabeled bodies: a ready data URI, embedded JSON, or
// a raw base64 payload long enough to plausibly be an image.
func (c *Client) normalizeText(ctx context.Context, body []byte) (*Artifact, error) {
	text := strings.TrimSpace(string(body))
	switch {
	case strings.HasPrefix(text, "data:"):
		return wrapImageData(text, EncodingDataURL), nil
	case strings.HasPrefix(text, "{"):
		return c.normalizeJSON(ctx, []byte(text), true)
	case len(text) > minRawBase64Len:
		return wrapImageData(text, EncodingRawBase64), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoImageInResponse, snippet(body))
}

// resolveURL normalizes an image reference returned by the provider. Absolute
// URLs pass through, relative paths are resolved against the provider host and
// bare base64 payloads are given the default PNG data URI prefix.
func (c *Client) resolveURL(raw string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "`", "")
	switch {
	case strings.HasPrefix(cleaned, "http://"), strings.HasPrefix(cleaned, "https://"):
		return cleaned
	case strings.HasPrefix(cleaned, "/"):
		return c.baseURL + cleaned
	case !strings.HasPrefix(cleaned, "data:"):
		return "data:image/png;base64," + cleaned
	}
	return cleaned
}

// fetchArtifact resolves a provider URL and materializes it into a
// self-contained artifact, downloading remote images when necessary.
func (c *Client) fetchArtifact(ctx context.Context, rawURL string, source SourceEncoding) (*Artifact, error) {
	resolved := c.resolveURL(rawURL)
	if strings.HasPrefix(resolved, "data:") {
		return wrapImageData(resolved, source), nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, fmt.Errorf("grsai: build image download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grsai: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("grsai: image download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("grsai: read image: %w", err)
	}
	return binaryArtifact(data, resp.Header.Get("Content-Type"), source), nil
}
