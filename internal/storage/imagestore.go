// Package storage is the file-backed key->bytes store holding product images.
// Keys are slash-separated paths relative to the store root.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"
)

var ErrInvalidKey = errors.New("invalid storage key")

// ImageStore is what the image reconciler needs from storage.
type ImageStore interface {
	Exists(key string) (bool, error)
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Delete(key string) error
	// List returns the keys of the files directly under dir, sorted.
	List(dir string) ([]string, error)
}

type FileStore struct {
	fs afero.Fs
}

// NewFileStore roots the store at root on the OS filesystem.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image root %s: %w", root, err)
	}
	return NewFileStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// NewFileStoreFs wraps any afero filesystem, e.g. afero.NewMemMapFs in tests.
func NewFileStoreFs(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

func (s *FileStore) Exists(key string) (bool, error) {
	p, err := clean(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

func (s *FileStore) Get(key string) ([]byte, error) {
	p, err := clean(key)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, p)
}

func (s *FileStore) Put(key string, data []byte) error {
	p, err := clean(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p, data, 0o644)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	p, err := clean(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) List(dir string) ([]string, error) {
	p, err := clean(dir)
	if err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		keys = append(keys, path.Join(dir, info.Name()))
	}
	sort.Strings(keys)
	return keys, nil
}

// clean rejects keys escaping the store root.
func clean(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	p := path.Clean("/" + key)
	if p == "/" {
		return "", ErrInvalidKey
	}
	return p, nil
}
