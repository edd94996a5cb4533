package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// FileStore coordinates locks between processes on one host with advisory
// file locks. The kernel drops a lock when its holder exits, which stands in
// for expiry; ttl is not otherwise enforced.
type FileStore struct {
	dir string

	mu   sync.Mutex
	held map[string]fileLease
}

type fileLease struct {
	token string
	lock  *flock.Flock
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	return &FileStore{dir: dir, held: make(map[string]fileLease)}, nil
}

func (s *FileStore) path(key string) string {
	name := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(key)
	return filepath.Join(s.dir, name+".lock")
}

func (s *FileStore) Acquire(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.held[key]; ok {
		return false, nil
	}

	fl := flock.New(s.path(key))
	ok, err := fl.TryLock()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	s.held[key] = fileLease{token: token, lock: fl}
	return true, nil
}

func (s *FileStore) Release(_ context.Context, key, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lease, ok := s.held[key]
	if !ok || lease.token != token {
		return false, nil
	}

	delete(s.held, key)
	if err := lease.lock.Unlock(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) Extend(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lease, ok := s.held[key]
	return ok && lease.token == token, nil
}
