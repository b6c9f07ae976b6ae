package domain

import (
	"fmt"
	"strings"
)

// Model enumerates the generation models offered by the provider.
type Model string

const (
	ModelFast  Model = "nano-banana-fast"
	ModelPro   Model = "nano-banana-pro"
	ModelProVT Model = "nano-banana-pro-vt"
)

// CreditCost returns the credit price of a single generation with the model.
func (m Model) CreditCost() int {
	switch m {
	case ModelFast:
		return 10
	case ModelPro:
		return 30
	case ModelProVT:
		return 40
	default:
		return 0
	}
}

// SupportsImageSize reports whether the model accepts an explicit output size.
// Only the pro variants do; the fast model always decides its own size.
func (m Model) SupportsImageSize() bool {
	s := string(m)
	return strings.Contains(s, "pro") && !strings.Contains(s, "fast")
}

// Valid reports whether the model is one of the supported identifiers.
func (m Model) Valid() bool {
	switch m {
	case ModelFast, ModelPro, ModelProVT:
		return true
	}
	return false
}

// ImageSize enumerates output resolution hints for pro models.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
	ImageSize4K ImageSize = "4K"
)

// Valid reports whether the size hint is supported.
func (s ImageSize) Valid() bool {
	switch s {
	case ImageSize1K, ImageSize2K, ImageSize4K:
		return true
	}
	return false
}

// AspectRatios lists every ratio the provider accepts, including "auto".
var AspectRatios = []string{
	"auto", "1:1", "16:9", "9:16", "4:3", "3:4", "3:2", "2:3", "5:4", "4:5", "21:9",
}

// ValidAspectRatio reports whether the ratio is one of the supported values.
func ValidAspectRatio(ratio string) bool {
	for _, r := range AspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

const (
	// MaxReferenceImages caps the number of reference images per request.
	MaxReferenceImages = 4
	// MaxReferenceImageBytes caps a single reference image payload. Inputs
	// beyond this must be compressed before submission.
	MaxReferenceImageBytes = 4 << 20
)

// ComposePrompt joins a module's fixed template with the user's text. The
// template is always present; user text is appended comma-separated when given.
func ComposePrompt(fixed, user string) string {
	fixed = strings.TrimSpace(fixed)
	user = strings.TrimSpace(user)
	if user == "" {
		return fixed
	}
	return fmt.Sprintf("%s, %s", fixed, user)
}
