package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
)

// LocalStorage persists session credentials to the local filesystem. Keys map
// to paths below basePath.
type LocalStorage struct {
	basePath string
	log      zerolog.Logger
}

// NewLocalStorage creates a new local filesystem storage backend.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("WHATSAPP_LOCAL_STORAGE_PATH is not set; session persistence disabled")
		return &LocalStorage{log: logger}, nil
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}

	logger.Info().Str("path", basePath).Msg("local storage initialized")
	return &LocalStorage{basePath: basePath, log: logger}, nil
}

// Enabled reports whether a base path is configured.
func (l *LocalStorage) Enabled() error {
	if l.basePath == "" {
		return &session.ConfigurationError{Missing: []string{"WHATSAPP_LOCAL_STORAGE_PATH"}}
	}
	return nil
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.basePath, clean), nil
}

// Put writes data under key.
func (l *LocalStorage) Put(ctx context.Context, key string, data []byte) error {
	if err := l.Enabled(); err != nil {
		return err
	}
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	l.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("object written to local storage")
	return nil
}

// Get reads the object under key.
func (l *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := l.Enabled(); err != nil {
		return nil, err
	}
	fullPath, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, session.ErrObjectNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Head reports whether key exists as a regular file.
func (l *LocalStorage) Head(ctx context.Context, key string) (bool, error) {
	if err := l.Enabled(); err != nil {
		return false, err
	}
	fullPath, err := l.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// ListByPrefix lists keys and common prefixes directly under prefix. Prefixes
// that do not end on a directory boundary match entries by name.
func (l *LocalStorage) ListByPrefix(ctx context.Context, prefix string) (*session.Listing, error) {
	if err := l.Enabled(); err != nil {
		return nil, err
	}

	dirKey, namePrefix := "", prefix
	if idx := strings.LastIndex(prefix, "/"); idx >= 0 {
		dirKey, namePrefix = prefix[:idx+1], prefix[idx+1:]
	}

	dir := l.basePath
	if dirKey != "" {
		p, err := l.path(dirKey)
		if err != nil {
			return nil, err
		}
		dir = p
	}

	listing := &session.Listing{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return listing, nil
		}
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, namePrefix) || strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			listing.CommonPrefixes = append(listing.CommonPrefixes, dirKey+name+"/")
			continue
		}
		listing.Keys = append(listing.Keys, dirKey+name)
	}
	sort.Strings(listing.Keys)
	sort.Strings(listing.CommonPrefixes)
	return listing, nil
}

// Delete removes key. Missing keys are not an error.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := l.Enabled(); err != nil {
		return err
	}
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every file whose key starts with prefix.
func (l *LocalStorage) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if err := l.Enabled(); err != nil {
		return 0, err
	}

	var keys []string
	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", prefix, err)
	}

	for _, key := range keys {
		if err := l.Delete(ctx, key); err != nil {
			return 0, err
		}
	}

	if strings.HasSuffix(prefix, "/") {
		if dir, err := l.path(prefix); err == nil {
			_ = os.RemoveAll(dir)
		}
	}
	return len(keys), nil
}

// Health checks if the storage directory is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	if l.basePath == "" {
		return nil
	}
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
