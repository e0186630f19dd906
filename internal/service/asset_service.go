package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/landingkit/internal/storage"
	_ "golang.org/x/image/webp"
)

// DefaultMaxAssetBytes caps uploads when no limit is configured.
const DefaultMaxAssetBytes int64 = 5 << 20

var (
	ErrNotAnImage    = errors.New("only png, jpeg, gif or webp images can be uploaded")
	ErrAssetTooLarge = errors.New("image exceeds the upload size limit")
	ErrAssetEmpty    = errors.New("image file is empty")
)

var formatExtensions = map[string]string{
	"png":  "png",
	"jpeg": "jpg",
	"gif":  "gif",
	"webp": "webp",
}

// Asset describes a stored upload.
type Asset struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentType string `json:"contentType"`
}

// AssetService validates images and hands them to the configured store.
type AssetService struct {
	store    storage.Store
	maxBytes int64
	now      func() time.Time
}

// NewAssetService creates an AssetService. maxBytes <= 0 uses DefaultMaxAssetBytes.
func NewAssetService(store storage.Store, maxBytes int64) *AssetService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAssetBytes
	}
	return &AssetService{store: store, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes reports the upload limit.
func (s *AssetService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload reads an image, checks its format by content rather than by name and stores it
// under uploads/<unix-ms>-<random>.<ext>.
func (s *AssetService) Upload(ctx context.Context, r io.Reader) (*Asset, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrAssetEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrAssetTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotAnImage
	}
	ext, ok := formatExtensions[format]
	if !ok {
		return nil, ErrNotAnImage
	}

	key := fmt.Sprintf("uploads/%d-%s.%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
	contentType := "image/" + format

	url, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return nil, err
	}

	return &Asset{
		URL:         url,
		Key:         key,
		Width:       cfg.Width,
		Height:      cfg.Height,
		ContentType: contentType,
	}, nil
}
