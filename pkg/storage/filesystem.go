package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// LocalStorage keeps generated roster files on the local filesystem,
// rooted at a single base directory.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root directory when missing and returns a handle.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, dirMode); err != nil {
		return nil, fmt.Errorf("storage root %s: %w", root, err)
	}
	return &LocalStorage{root: root}, nil
}

// Save writes data to the relative path under the root, creating parent
// directories as needed.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	target, err := s.target(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return "", fmt.Errorf("storage save %s: %w", name, err)
	}
	if err := os.WriteFile(target, data, fileMode); err != nil {
		return "", fmt.Errorf("storage save %s: %w", name, err)
	}
	return name, nil
}

// SaveStream streams the reader's content into the target file.
func (s *LocalStorage) SaveStream(name string, r io.Reader) (string, error) {
	target, err := s.target(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return "", fmt.Errorf("storage save %s: %w", name, err)
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("storage save %s: %w", name, err)
	}
	defer f.Close() //nolint:errcheck
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("storage save %s: %w", name, err)
	}
	return name, nil
}

// Open returns a read-only handle for a stored file.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	target, err := s.target(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("storage open %s: %w", name, err)
	}
	return f, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStorage) Delete(name string) error {
	target, err := s.target(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage delete %s: %w", name, err)
	}
	return nil
}

// CleanupOlderThan deletes files whose modification time predates the TTL
// and reports the relative names it removed.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var removed []string

	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			rel = path
		}
		removed = append(removed, rel)
		return nil
	}

	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, fmt.Errorf("storage cleanup: %w", err)
	}
	return removed, nil
}

// Path resolves a stored name to its absolute location on disk.
func (s *LocalStorage) Path(name string) string {
	target, err := s.target(name)
	if err != nil {
		return filepath.Join(s.root, filepath.Base(name))
	}
	return target
}

// target joins the name under the root and rejects paths that would
// escape it.
func (s *LocalStorage) target(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage path %s escapes root", name)
	}
	return filepath.Join(s.root, cleaned), nil
}
