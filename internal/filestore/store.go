// Package filestore keeps collection snapshots as JSON files on the local
// device, one file per owner and key.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Store is a file-backed key-value mirror. Every call locks its file, so
// several processes can share a directory.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Get reads a snapshot. A missing or empty file reports found=false.
func (s *Store) Get(_ context.Context, owner, key string) ([]byte, bool, error) {
	path, err := s.path(owner, key)
	if err != nil {
		return nil, false, err
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", key, err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_SH); err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", key, err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	info, err := file.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", key, err)
	}
	if info.Size() == 0 {
		return nil, false, nil
	}

	data := make([]byte, info.Size())
	if _, err := file.ReadAt(data, 0); err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Put replaces the snapshot: lock, truncate, write, unlock.
func (s *Store) Put(_ context.Context, owner, key string, value []byte) error {
	path, err := s.path(owner, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create owner dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", key, err)
	}
	if _, err := file.WriteAt(value, 0); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return file.Sync()
}

func (s *Store) path(owner, key string) (string, error) {
	for _, part := range []string{owner, key} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid snapshot name %q", part)
		}
	}
	return filepath.Join(s.dir, owner, key+".json"), nil
}
