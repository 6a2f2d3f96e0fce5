package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/mvpcast/internal/domain/model"
	"github.com/okian/mvpcast/pkg/logger"
)

// FileBundleStore keeps the bundle as a JSON file. Load decodes the file
// again only when it has been replaced since the last read.
type FileBundleStore struct {
	path string
	mode os.FileMode
	log  logger.Logger

	mu     sync.Mutex
	loaded *model.Bundle
	info   fs.FileInfo
}

// NewFileBundleStore returns a store backed by path.
func NewFileBundleStore(path string, opts ...FileOption) *FileBundleStore {
	s := &FileBundleStore{path: path, mode: 0o644, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the bundle file path.
func (s *FileBundleStore) Path() string { return s.path }

// Save writes b through a temporary file so readers never see a partial
// bundle.
func (s *FileBundleStore) Save(ctx context.Context, b *model.Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bundle-*")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Chmod(tmp.Name(), s.mode); err != nil {
		return fmt.Errorf("chmod bundle: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("install bundle: %w", err)
	}
	s.loaded, s.info = nil, nil
	s.log.Info(ctx, "model bundle saved",
		logger.String("path", s.path),
		logger.String("run_id", b.RunID.String()),
		logger.String("model", b.Model.Kind()),
		logger.Int("features", len(b.FeatureColumns)),
	)
	return nil
}

// Load reads the bundle. The file is opened read-only. The returned bundle
// is shared between callers until the file changes and must not be
// modified.
func (s *FileBundleStore) Load(ctx context.Context) (*model.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("stat bundle: %w", err)
	}
	if s.loaded != nil && sameFile(s.info, info) {
		return s.loaded, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b model.Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBundle, s.path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBundle, s.path, err)
	}
	s.loaded, s.info = &b, info
	s.log.Debug(ctx, "model bundle loaded",
		logger.String("path", s.path),
		logger.String("run_id", b.RunID.String()),
		logger.String("model", b.Model.Kind()),
	)
	return &b, nil
}

func sameFile(a, b fs.FileInfo) bool {
	return os.SameFile(a, b) && a.ModTime().Equal(b.ModTime()) && a.Size() == b.Size()
}
