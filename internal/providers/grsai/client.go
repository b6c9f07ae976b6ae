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

	"github.com/rs/zerolog"

	"urbangen/internal/domain"
	"urbangen/internal/infra"
)

const (
	drawPath   = "/v1/draw/nano-banana"
	resultPath = "/v1/draw/result"

	defaultBaseURL      = "https://grsai.dakka.com.cn"
	defaultPollInterval = 3 * time.Second
	defaultPollAttempts = 10
)

// Options configures the Grsai drawing client.
type Options struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	Logger       *infra.Logger
	PollInterval time.Duration
	PollAttempts int
}

// Client performs HTTP calls to the Grsai nano-banana drawing API. A single
// Generate call performs exactly one dispatch; asynchronous completions are
// followed through the event stream or the result endpoint.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	pollAttempts int
}

// GenerationRequest captures the inputs for one image generation.
type GenerationRequest struct {
	Prompt      string
	Model       domain.Model
	AspectRatio string
	ImageSize   domain.ImageSize
	// ReferenceImages holds up to four data URIs or remote URLs, passed to
	// the provider unchanged.
	ReferenceImages []string
}

type drawRequest struct {
	Prompt       string   `json:"prompt"`
	Model        string   `json:"model"`
	AspectRatio  string   `json:"aspectRatio"`
	ShutProgress bool     `json:"shutProgress"`
	ImageSize    string   `json:"imageSize,omitempty"`
	URLs         []string `json:"urls,omitempty"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
// The default HTTP client carries no overall timeout: streamed responses stay
// open for the lifetime of a generation and are bounded by the request context.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	pollAttempts := opts.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = defaultPollAttempts
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		httpClient:   httpClient,
		logger:       logger,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// BaseURL returns the configured provider host.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate dispatches one drawing request and resolves it to a canonical
// artifact regardless of how the provider answers: a live event stream, a
// deferred task handle or a direct synchronous body. It never retries; retry
// is a caller decision.
func (c *Client) Generate(ctx context.Context, req GenerationRequest, onProgress ProgressFunc) (*Artifact, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredential
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	payload := drawRequest{
		Prompt:       req.Prompt,
		Model:        string(req.Model),
		AspectRatio:  req.AspectRatio,
		ShutProgress: false,
	}
	if req.Model.SupportsImageSize() && req.ImageSize != "" {
		payload.ImageSize = string(req.ImageSize)
	}
	if len(req.ReferenceImages) > 0 {
		payload.URLs = append([]string(nil), req.ReferenceImages...)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("grsai: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+drawPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("grsai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("grsai: dispatch: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	c.logger.Debug().
		Str("model", string(req.Model)).
		Str("content_type", contentType).
		Int("status", resp.StatusCode).
		Msg("grsai: draw response received")

	if strings.HasPrefix(contentType, "text/event-stream") {
		return c.readStream(ctx, resp.Body, onProgress)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("grsai: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &GenerationError{Reason: errorReason(raw, resp.StatusCode)}
	}
	return c.normalizeResponse(ctx, contentType, raw)
}

func validateRequest(req GenerationRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("grsai: prompt is required")
	}
	if !req.Model.Valid() {
		return fmt.Errorf("grsai: unsupported model %q", req.Model)
	}
	if len(req.ReferenceImages) > domain.MaxReferenceImages {
		return fmt.Errorf("grsai: at most %d reference images allowed", domain.MaxReferenceImages)
	}
	for i, ref := range req.ReferenceImages {
		if len(ref) > domain.MaxReferenceImageBytes {
			return fmt.Errorf("grsai: reference image %d exceeds %d bytes, compress it first", i+1, domain.MaxReferenceImageBytes)
		}
	}
	return nil
}

// errorReason extracts a human-readable message from an error status body.
func errorReason(body []byte, status int) string {
	var detail struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		if detail.Message != "" {
			return detail.Message
		}
		if detail.Error != "" {
			return detail.Error
		}
	}
	return fmt.Sprintf("status %d: %s", status, snippet(body))
}
