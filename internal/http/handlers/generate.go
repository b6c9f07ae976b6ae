package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"urbangen/internal/billing"
	"urbangen/internal/domain"
	"urbangen/internal/providers/grsai"
)

type generateRequest struct {
	ModuleID    string   `json:"module_id"`
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	AspectRatio string   `json:"aspect_ratio"`
	ImageSize   string   `json:"image_size"`
	Images      []string `json:"images"`
}

type generateResponse struct {
	ImageID   string `json:"image_id"`
	ImageData string `json:"image_data"`
	ImageURL  string `json:"image_url"`
	Credits   int    `json:"credits"`
	RecordID  string `json:"record_id"`
}

// Generate runs one image generation end to end: validation, provider call,
// then settlement. Credits are only charged after the artifact is in hand.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	model := domain.Model(req.Model)
	if !model.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown model")
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "auto"
	}
	if !domain.ValidAspectRatio(req.AspectRatio) {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported aspect ratio")
		return
	}
	size := domain.ImageSize(req.ImageSize)
	if req.ImageSize != "" && !size.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported image size")
		return
	}
	if len(req.Images) > domain.MaxReferenceImages {
		a.error(w, http.StatusBadRequest, "bad_request", "too many reference images")
		return
	}

	var module *domain.DesignModule
	moduleName := ""
	prompt := strings.TrimSpace(req.Prompt)
	if req.ModuleID != "" {
		module = domain.ModuleByID(req.ModuleID)
		if module == nil {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown module")
			return
		}
		moduleName = module.Title
		prompt = domain.ComposePrompt(module.FixedPrompt, prompt)
	}
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt required")
		return
	}

	cost := model.CreditCost()
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load user")
		return
	}
	// Early rejection so the provider is never called for a balance that
	// cannot cover the generation. The authoritative check happens again at
	// settlement.
	if user.Credits < cost {
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this model")
		return
	}

	resolution := string(size)
	if resolution == "" {
		resolution = string(domain.ImageSize1K)
	}

	imageID := uuid.NewString()
	meta := billing.RecordMeta{
		Model:       string(model),
		Resolution:  resolution,
		AspectRatio: req.AspectRatio,
		ImageSize:   string(size),
		Prompt:      prompt,
		UserPrompt:  strings.TrimSpace(req.Prompt),
		ModuleName:  moduleName,
	}

	ctx := r.Context()
	if a.Cfg != nil && a.Cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Cfg.GenerateTimeout)
		defer cancel()
	}

	artifact, err := a.Generator.Generate(ctx, grsai.GenerationRequest{
		Prompt:          prompt,
		Model:           model,
		AspectRatio:     req.AspectRatio,
		ImageSize:       size,
		ReferenceImages: req.Images,
	}, func(percent int) {
		a.Logger.Debug().Str("image_id", imageID).Int("percent", percent).Msg("generation progress")
	})
	if err != nil {
		if recErr := a.Billing.RecordFailure(ctx, userID, imageID, meta); recErr != nil {
			a.Logger.Error().Err(recErr).Str("image_id", imageID).Msg("failure record write failed")
		}
		a.respondGenerateError(w, imageID, err)
		return
	}

	result, err := a.Billing.Settle(ctx, userID, cost, artifact, imageID, meta)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this model")
		case errors.Is(err, billing.ErrSettlementIncomplete):
			a.Logger.Error().Err(err).Str("image_id", imageID).Msg("settlement incomplete")
			a.error(w, http.StatusInternalServerError, "internal", "generation succeeded but settlement failed")
		default:
			a.error(w, http.StatusInternalServerError, "internal", "failed to settle generation")
		}
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		ImageID:   imageID,
		ImageData: artifact.ImageData,
		ImageURL:  a.imageURL(imageID),
		Credits:   result.NewBalance,
		RecordID:  result.RecordID,
	})
}

func (a *App) respondGenerateError(w http.ResponseWriter, imageID string, err error) {
	var genErr *grsai.GenerationError
	switch {
	case errors.As(err, &genErr):
		a.error(w, http.StatusBadGateway, "generation_failed", genErr.Reason)
	case errors.Is(err, grsai.ErrGenerationTimedOut):
		a.error(w, http.StatusGatewayTimeout, "timeout", "generation timed out")
	case errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusGatewayTimeout, "timeout", "generation timed out")
	case errors.Is(err, grsai.ErrNoImageInResponse), errors.Is(err, grsai.ErrUnrecognizedFormat):
		a.Logger.Error().Err(err).Str("image_id", imageID).Msg("unusable provider response")
		a.error(w, http.StatusBadGateway, "generation_failed", "provider returned no usable image")
	case errors.Is(err, grsai.ErrStreamClosed):
		a.error(w, http.StatusBadGateway, "generation_failed", "provider stream ended early")
	default:
		a.Logger.Error().Err(err).Str("image_id", imageID).Msg("generation failed")
		a.error(w, http.StatusBadGateway, "generation_failed", "generation failed")
	}
}

func (a *App) imageURL(imageID string) string {
	base := ""
	if a.Cfg != nil {
		base = strings.TrimRight(a.Cfg.StorageBaseURL, "/")
	}
	return base + "/" + imageID
}
