// ABOUTME: Durable key-value storage for the persisted session
// ABOUTME: File backend writes one file per key with atomic rename

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/markalston/newsdesk/internal/config"
)

// Keys of the two persisted entries
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Storage persists small values across runs. Get returns (nil, nil) for a
// missing key and Delete of a missing key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var validKey = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FileStorage keeps each key in its own file inside dir
type FileStorage struct {
	dir string
}

// NewFileStorage creates a file storage rooted at dir. The directory is created
// on first write.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (fs *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(fs.dir, key), nil
}

func (fs *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	p, err := fs.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes value to a temp file and renames it over the key, so readers see
// either the old or the new value.
func (fs *FileStorage) Set(_ context.Context, key string, value []byte) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fs.dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", fs.dir, err)
	}

	tmp, err := os.CreateTemp(fs.dir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (fs *FileStorage) Delete(_ context.Context, key string) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (fs *FileStorage) Close() error { return nil }

// MemoryStorage is an in-process Storage, used by tests and dry runs
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string][]byte
	// FailGet, when set, is returned by every Get
	FailGet error
	// FailSet, when set, is returned by Set for the matching key
	FailSet map[string]error
	// FailDelete, when set, is returned by Delete for the matching key
	FailDelete map[string]error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailSet[key]; err != nil {
		return err
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDelete[key]; err != nil {
		return err
	}
	delete(m.values, key)
	return nil
}

func (m *MemoryStorage) Close() error { return nil }

// Len reports how many keys are stored
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// OpenStorage opens the storage backend named by backend ("file" or "sqlite")
// rooted at dir.
func OpenStorage(ctx context.Context, backend, dir string) (Storage, error) {
	switch backend {
	case config.BackendSQLite:
		return OpenSQLiteStorage(ctx, dir)
	case config.BackendFile, "":
		return NewFileStorage(dir), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}
