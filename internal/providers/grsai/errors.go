package grsai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential indicates the client was configured without an API key.
	ErrMissingCredential = errors.New("grsai: api key is required")
	// ErrNoImageInResponse indicates the provider answered but no branch of the
	// response yielded image data.
	ErrNoImageInResponse = errors.New("grsai: no image in response")
	// ErrUnrecognizedFormat indicates the response body could not be interpreted
	// as any known encoding.
	ErrUnrecognizedFormat = errors.New("grsai: unrecognized response format")
	// ErrGenerationTimedOut indicates the polling attempt cap was exhausted
	// before the provider reported a result. Retryable.
	ErrGenerationTimedOut = errors.New("grsai: generation timed out")
	// ErrStreamClosed indicates the event stream ended before a terminal
	// status arrived. Retryable.
	ErrStreamClosed = errors.New("grsai: stream closed before completion")
)

// GenerationError carries the failure reason the provider reported.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("grsai: generation failed: %s", e.Reason)
}

// snippet returns the first 100 characters of a body for diagnostics.
func snippet(body []byte) string {
	const max = 100
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
