package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/semaphore"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/netatmo"
)

const (
	tokenFileMode = 0o600
	tokenDirMode  = 0o700
)

// FileStore persists tokens as a JSON file.
type FileStore struct {
	path string
	sem  *semaphore.Weighted
	opts options
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by the file at path.
// The file and its directory are created on the first Save.
func NewFileStore(path string, opts ...Option) *FileStore {
	if path == "" {
		path = config.DefaultTokenFilePath
	}
	return &FileStore{
		path: path,
		sem:  semaphore.NewWeighted(1),
		opts: buildOptions(opts),
	}
}

// Path returns the token file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the token record. A missing, unparsable or incomplete file
// yields (nil, nil).
func (s *FileStore) Load(ctx context.Context) (tokens *netatmo.Tokens, err error) {
	defer func() {
		s.opts.metrics.RecordTokenStoreOperation(ctx, config.TokenStoreTypeFile, opLoad, statusOf(err))
	}()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, netatmo.NewIOError(opLoad, err)
	}
	defer s.sem.Release(1)
	if err := ctx.Err(); err != nil {
		return nil, netatmo.NewIOError(opLoad, err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, netatmo.NewIOError(opLoad, err)
	}

	var t netatmo.Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		s.opts.logger.Warn("discarding unreadable token file",
			"path", s.path,
			"error", netatmo.NewCorruptionError(s.path, err).Error())
		return nil, nil
	}
	if !t.Valid() {
		s.opts.logger.Warn("discarding incomplete token file", "path", s.path)
		return nil, nil
	}
	return &t, nil
}

// Save replaces the token record atomically.
func (s *FileStore) Save(ctx context.Context, tokens *netatmo.Tokens) (err error) {
	defer func() {
		s.opts.metrics.RecordTokenStoreOperation(ctx, config.TokenStoreTypeFile, opSave, statusOf(err))
	}()

	if !tokens.Valid() {
		return netatmo.NewValidationError("refusing to store incomplete token record")
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return netatmo.NewIOError(opSave, err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return netatmo.NewIOError(opSave, err)
	}
	defer s.sem.Release(1)

	if err := writeFileAtomic(ctx, s.path, data); err != nil {
		return netatmo.NewIOError(opSave, err)
	}
	s.opts.logger.Debug("stored token file", "path", s.path)
	return nil
}

// Close implements io.Closer.
func (s *FileStore) Close() error {
	return nil
}

// writeFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path. The rename is the commit point: a context cancelled
// before it leaves path untouched and the temporary file removed.
func writeFileAtomic(ctx context.Context, path string, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, tokenDirMode); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(tokenFileMode); err != nil {
		return fmt.Errorf("set token file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}
