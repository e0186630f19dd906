package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// LocalStore writes assets below Dir; the router serves Dir at URLPath.
type LocalStore struct {
	Dir     string
	URLPath string
}

// NewLocalStore 创建本地存储，目录不存在时自动创建。
func NewLocalStore(dir, urlPath string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("local storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	urlPath = "/" + strings.Trim(strings.TrimSpace(urlPath), "/")
	return &LocalStore{Dir: dir, URLPath: urlPath}, nil
}

// Put writes data atomically; a crash never leaves a half-written asset behind.
func (s *LocalStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.Dir, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := renameio.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return strings.TrimSuffix(s.URLPath, "/") + "/" + cleaned, nil
}
