package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidImageData indicates the payload was not a decodable image data URI.
var ErrInvalidImageData = errors.New("storage: invalid image data")

// FileStore persists generated images onto the local filesystem. It stands in
// for an object storage service in development and test environments.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// SaveImage decodes a data URI (or bare base64 payload) and writes it under
// the image id, returning the local path. The extension follows the declared
// MIME type, falling back to png.
func (s *FileStore) SaveImage(ctx context.Context, imageID, imageData string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if strings.TrimSpace(imageID) == "" {
		return "", errors.New("storage: image id is required")
	}
	payload, ext, err := decodeImageData(imageData)
	if err != nil {
		return "", err
	}
	key, err := s.Write(ctx, imageID+"."+ext, payload)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// ImagePath returns the stored path for an image id, trying known extensions.
func (s *FileStore) ImagePath(imageID string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	clean, err := sanitizeKey(imageID)
	if err != nil {
		return "", err
	}
	for _, ext := range []string{"png", "jpeg", "webp", "gif"} {
		path := filepath.Join(s.basePath, clean+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", os.ErrNotExist
}

// Write persists the provided bytes at the given relative key and returns the
// canonicalized storage key. Keys are cleaned to prevent directory traversal.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

// decodeImageData splits a data URI into raw bytes and a file extension.
// Payloads without a data: prefix are treated as bare base64 PNG data.
func decodeImageData(imageData string) ([]byte, string, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return nil, "", ErrInvalidImageData
	}
	ext := "png"
	encoded := imageData
	if strings.HasPrefix(imageData, "data:") {
		comma := strings.Index(imageData, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("%w: missing payload separator", ErrInvalidImageData)
		}
		header := imageData[len("data:"):comma]
		encoded = imageData[comma+1:]
		mime := header
		if i := strings.Index(header, ";"); i >= 0 {
			mime = header[:i]
		}
		if !strings.HasPrefix(mime, "image/") {
			return nil, "", fmt.Errorf("%w: unsupported mime %q", ErrInvalidImageData, mime)
		}
		switch strings.TrimPrefix(mime, "image/") {
		case "jpeg", "jpg":
			ext = "jpeg"
		case "webp":
			ext = "webp"
		case "gif":
			ext = "gif"
		default:
			ext = "png"
		}
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	return payload, ext, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
