package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBucket is the public bucket the editor's image fields upload into.
const DefaultBucket = "page-assets"

// SupabaseStore uploads through the Supabase Storage REST API.
type SupabaseStore struct {
	baseURL string
	bucket  string
	client  *resty.Client
}

// NewSupabaseStore creates a client authenticated with the service role key.
func NewSupabaseStore(baseURL, serviceKey, bucket string) *SupabaseStore {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.TrimSpace(bucket) == "" {
		bucket = DefaultBucket
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetAuthToken(serviceKey).
		SetHeader("apikey", serviceKey)

	return &SupabaseStore{baseURL: baseURL, bucket: bucket, client: client}
}

// Put uploads without overwriting; an existing key is reported as a failure.
func (s *SupabaseStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "false").
		SetHeader("cache-control", "max-age=3600").
		SetBody(data).
		Post(s.objectPath("/storage/v1/object/", cleaned))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return s.PublicURL(cleaned), nil
}

// PublicURL returns the unauthenticated download URL for key.
func (s *SupabaseStore) PublicURL(key string) string {
	return s.baseURL + s.objectPath("/storage/v1/object/public/", key)
}

func (s *SupabaseStore) objectPath(prefix, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return prefix + url.PathEscape(s.bucket) + "/" + strings.Join(segments, "/")
}
