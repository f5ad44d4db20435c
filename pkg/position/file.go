package position

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/observability"
)

// FileStore keeps each position map in <dir>/<name>.toml as a flat table,
// quoting labels that are not bare keys:
//
//	Select = "10 10 92 75"
//	"Energy Scale" = "40 310 92 75"
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a file store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create store directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file a layout name is stored in.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+".toml")
}

// Load reads the map saved under name.
func (s *FileStore) Load(ctx context.Context, name string) (m Map, err error) {
	start := time.Now()
	defer func() { observability.Store().OnLoad(ctx, "file", name, len(m), time.Since(start), err) }()

	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m = Map{}
	if _, err := toml.DecodeFile(s.Path(name), &m); err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read positions %s", name)
	}
	return m, nil
}

// Save writes m under name, replacing the previous file atomically.
func (s *FileStore) Save(ctx context.Context, name string, m Map) (err error) {
	start := time.Now()
	defer func() { observability.Store().OnSave(ctx, "file", name, len(m), time.Since(start), err) }()

	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write positions %s", name)
	}
	defer os.Remove(tmp.Name())

	if m == nil {
		m = Map{}
	}
	if err := toml.NewEncoder(tmp).Encode(map[string]string(m)); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStorage, err, "encode positions %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write positions %s", name)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "replace positions %s", name)
	}
	return nil
}

// Delete removes the file for name.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete positions %s", name)
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// String describes the store for log output.
func (s *FileStore) String() string { return fmt.Sprintf("file:%s", s.dir) }

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
