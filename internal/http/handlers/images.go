package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"urbangen/internal/storage"
)

type saveImageRequest struct {
	ImageData string `json:"image_data"`
}

type saveImageResponse struct {
	ImageID  string `json:"image_id"`
	ImageURL string `json:"image_url"`
}

// SaveImage stores a client-supplied data URI under a fresh id. Used for
// uploading reference images before generation.
func (a *App) SaveImage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req saveImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	imageID := uuid.NewString()
	if _, err := a.Store.SaveImage(r.Context(), imageID, req.ImageData); err != nil {
		if errors.Is(err, storage.ErrInvalidImageData) {
			a.error(w, http.StatusBadRequest, "bad_request", "image_data must be a base64 image")
			return
		}
		a.Logger.Error().Err(err).Msg("save image failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save image")
		return
	}
	a.json(w, http.StatusOK, saveImageResponse{ImageID: imageID, ImageURL: a.imageURL(imageID)})
}

// GetImage streams a stored image from disk.
func (a *App) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "id")
	path, err := a.Store.ImagePath(imageID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.error(w, http.StatusNotFound, "not_found", "image not found")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid image id")
		return
	}
	http.ServeFile(w, r, path)
}
