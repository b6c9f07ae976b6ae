package grsai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ProgressFunc receives progress percentages as the provider reports them.
// Implementations must return quickly; the stream is not read while the
// callback runs.
type ProgressFunc func(percent int)

type streamEvent struct {
	Progress      *int         `json:"progress"`
	Status        string       `json:"status"`
	Results       []drawResult `json:"results"`
	FailureReason string       `json:"failure_reason"`
	ErrorMsg      string       `json:"error"`
}

func (e *streamEvent) failureReason() string {
	for _, reason := range []string{e.FailureReason, e.ErrorMsg} {
		if strings.TrimSpace(reason) != "" {
			return reason
		}
	}
	return "unknown error"
}

// readStream consumes a server-sent-event body until a terminal event arrives.
// Events are blank-line delimited; the tail of a partial event is carried over
// between reads. A malformed event is skipped, not fatal. The stream ending
// without a terminal status resolves to ErrStreamClosed.
func (c *Client) readStream(ctx context.Context, body io.Reader, onProgress ProgressFunc) (*Artifact, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	delim := []byte("\n\n")
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, readErr := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			for {
				idx := bytes.Index(buf.Bytes(), delim)
				if idx < 0 {
					break
				}
				event := make([]byte, idx)
				copy(event, buf.Bytes()[:idx])
				buf.Next(idx + len(delim))
				artifact, done, err := c.handleStreamEvent(ctx, event, onProgress)
				if err != nil {
					return nil, err
				}
				if done {
					return artifact, nil
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil, ErrStreamClosed
			}
			return nil, fmt.Errorf("grsai: read stream: %w", readErr)
		}
	}
}

// handleStreamEvent parses one complete SSE block. done is true only when the
// event carried a successful terminal status.
func (c *Client) handleStreamEvent(ctx context.Context, block []byte, onProgress ProgressFunc) (*Artifact, bool, error) {
	data, ok := extractEventData(block)
	if !ok {
		return nil, false, nil
	}
	var event streamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		c.logger.Warn().Err(err).Str("event", snippet([]byte(data))).Msg("grsai: skipping malformed stream event")
		return nil, false, nil
	}
	if event.Progress != nil && onProgress != nil {
		onProgress(*event.Progress)
	}
	switch {
	case event.Status == "failed":
		return nil, false, &GenerationError{Reason: event.failureReason()}
	case event.Status == "succeeded" && len(event.Results) > 0 && strings.TrimSpace(event.Results[0].URL) != "":
		artifact, err := c.fetchArtifact(ctx, event.Results[0].URL, EncodingResultURL)
		if err != nil {
			return nil, false, err
		}
		return artifact, true, nil
	}
	return nil, false, nil
}

// extractEventData pulls the payload of the data: line out of an event block.
func extractEventData(block []byte) (string, bool) {
	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data:")), true
		}
	}
	return "", false
}
