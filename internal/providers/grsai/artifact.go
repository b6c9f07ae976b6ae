package grsai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// SourceEncoding records which wire format an artifact was decoded from.
type SourceEncoding string

const (
	EncodingBinary    SourceEncoding = "binary"
	EncodingDataURL   SourceEncoding = "data-url"
	EncodingRawBase64 SourceEncoding = "raw-base64"
	EncodingJSONImage SourceEncoding = "json-image"
	EncodingResultURL SourceEncoding = "result-url"
	EncodingTaskPoll  SourceEncoding = "task-poll"
)

// Artifact is the canonical in-memory representation of a generated image.
// ImageData always carries a full data URI with an image MIME type.
type Artifact struct {
	ImageData string
	Source    SourceEncoding
}

// binaryArtifact wraps raw image bytes into a data URI artifact.
func binaryArtifact(data []byte, mimeType string, source SourceEncoding) *Artifact {
	mimeType = strings.TrimSpace(mimeType)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return &Artifact{
		ImageData: fmt.Sprintf("data:%s;base64,%s", mimeType, encoded),
		Source:    source,
	}
}

// wrapImageData guarantees a data URI prefix on embedded image payloads.
// Bare base64 strings receive the default PNG prefix.
func wrapImageData(data string, source SourceEncoding) *Artifact {
	data = strings.TrimSpace(data)
	if !strings.HasPrefix(data, "data:") {
		data = "data:image/png;base64," + data
	}
	return &Artifact{ImageData: data, Source: source}
}
