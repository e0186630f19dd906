// Package storage persists uploaded page assets and reports their public URLs.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	ErrInvalidKey   = errors.New("invalid object key")
	ErrUploadFailed = errors.New("asset upload failed")
)

// Store saves an object under key and returns the URL browsers use to fetch it.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// cleanKey rejects keys that would escape the bucket or upload directory.
func cleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") || strings.Contains(trimmed, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(trimmed)
	if cleaned != trimmed || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
