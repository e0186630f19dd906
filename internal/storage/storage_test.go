package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	valid := []string{"uploads/1-abc.png", "a.png"}
	for _, key := range valid {
		got, err := cleanKey(key)
		require.NoError(t, err, key)
		assert.Equal(t, key, got)
	}

	invalid := []string{"", "/etc/passwd", "../secret", "uploads/../../x", "a\\b", "uploads//x.png", "."}
	for _, key := range invalid {
		_, err := cleanKey(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStorePut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "assets")
	store, err := NewLocalStore(dir, "uploads-static/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "uploads/1700000000000-abcd1234.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads-static/uploads/1700000000000-abcd1234.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "uploads", "1700000000000-abcd1234.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "a.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSupabaseStorePut(t *testing.T) {
	var (
		gotMethod, gotPath, gotAuth, gotKey, gotUpsert, gotType string
		gotBody                                                 []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotUpsert = r.Header.Get("x-upsert")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Key":"page-assets/uploads/1-x.webp"}`))
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL+"/", "service-key", "")
	url, err := store.Put(context.Background(), "uploads/1-x.webp", "image/webp", []byte("webp"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/storage/v1/object/page-assets/uploads/1-x.webp", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, "image/webp", gotType)
	assert.Equal(t, "webp", string(gotBody))
	assert.Equal(t, srv.URL+"/storage/v1/object/public/page-assets/uploads/1-x.webp", url)
}

func TestSupabaseStoreReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Duplicate","message":"The resource already exists"}`))
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "k", "custom")
	_, err := store.Put(context.Background(), "uploads/a.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "409")
}
