package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strings"
	"testing"
	"time"
)

type recordingStore struct {
	key         string
	contentType string
	data        []byte
	err         error
}

func (s *recordingStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.key = key
	s.contentType = contentType
	s.data = data
	return "https://cdn.example.com/" + key, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadStoresImage(t *testing.T) {
	store := &recordingStore{}
	svc := NewAssetService(store, 0)
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }

	data := pngBytes(t, 4, 3)
	asset, err := svc.Upload(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if !regexp.MustCompile(`^uploads/1700000000123-[0-9a-f-]{8}\.png$`).MatchString(asset.Key) {
		t.Fatalf("unexpected key %s", asset.Key)
	}
	if asset.Width != 4 || asset.Height != 3 {
		t.Fatalf("unexpected dimensions %dx%d", asset.Width, asset.Height)
	}
	if asset.ContentType != "image/png" || store.contentType != "image/png" {
		t.Fatalf("unexpected content type %s", asset.ContentType)
	}
	if asset.URL != "https://cdn.example.com/"+asset.Key {
		t.Fatalf("unexpected url %s", asset.URL)
	}
	if !bytes.Equal(store.data, data) {
		t.Fatal("expected stored bytes to match upload")
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	svc := NewAssetService(&recordingStore{}, 64)

	if _, err := svc.Upload(context.Background(), strings.NewReader("")); !errors.Is(err, ErrAssetEmpty) {
		t.Fatalf("expected ErrAssetEmpty, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), strings.NewReader("<svg></svg>")); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("expected ErrNotAnImage, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), bytes.NewReader(make([]byte, 65))); !errors.Is(err, ErrAssetTooLarge) {
		t.Fatalf("expected ErrAssetTooLarge, got %v", err)
	}
}

func TestUploadPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("bucket unavailable")
	svc := NewAssetService(&recordingStore{err: boom}, 0)

	if _, err := svc.Upload(context.Background(), bytes.NewReader(pngBytes(t, 1, 1))); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if svc.MaxBytes() != DefaultMaxAssetBytes {
		t.Fatalf("expected default limit, got %d", svc.MaxBytes())
	}
}
