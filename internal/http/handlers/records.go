package handlers

import (
	"net/http"
	"time"

	"urbangen/internal/domain"
)

type recordDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ImageID     string    `json:"image_id"`
	ImageURL    string    `json:"image_url"`
	Model       string    `json:"model"`
	Resolution  string    `json:"resolution"`
	AspectRatio string    `json:"aspect_ratio"`
	ImageSize   string    `json:"image_size,omitempty"`
	Prompt      string    `json:"prompt"`
	UserPrompt  string    `json:"user_prompt"`
	ModuleName  string    `json:"module_name,omitempty"`
	Credits     int       `json:"credits"`
	Success     bool      `json:"success"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *App) toRecordDTOs(records []domain.GenerationRecord) []recordDTO {
	items := make([]recordDTO, 0, len(records))
	for _, rec := range records {
		dto := recordDTO{
			ID:          rec.ID,
			UserID:      rec.UserID,
			ImageID:     rec.ImageID,
			Model:       rec.Model,
			Resolution:  rec.Resolution,
			AspectRatio: rec.AspectRatio,
			ImageSize:   rec.ImageSize,
			Prompt:      rec.Prompt,
			UserPrompt:  rec.UserPrompt,
			ModuleName:  rec.ModuleName,
			Credits:     rec.Credits,
			Success:     rec.Success,
			CreatedAt:   rec.CreatedAt,
		}
		if rec.Success {
			dto.ImageURL = a.imageURL(rec.ImageID)
		}
		items = append(items, dto)
	}
	return items
}

// ListRecords returns the caller's generation history, newest first.
func (a *App) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	records, err := a.Records.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list records failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load records")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": a.toRecordDTOs(records)})
}

// ListModules returns the design module catalog with defaults.
func (a *App) ListModules(w http.ResponseWriter, r *http.Request) {
	type moduleDTO struct {
		ID                string `json:"id"`
		Title             string `json:"title"`
		DefaultUserPrompt string `json:"default_user_prompt"`
	}
	items := make([]moduleDTO, 0, len(domain.Modules))
	for _, m := range domain.Modules {
		items = append(items, moduleDTO{ID: m.ID, Title: m.Title, DefaultUserPrompt: m.DefaultUserPrompt})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
