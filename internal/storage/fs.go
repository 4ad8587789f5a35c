package storage

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs under a base directory and exposes them under a
// public URL prefix such as "/assets/".
type FSStore struct {
	base   string
	prefix string
}

func NewFSStore(base, urlPrefix string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &FSStore{base: base, prefix: urlPrefix}, nil
}

// resolve maps a key to a path inside base; keys cannot climb out of it.
func (s *FSStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", errors.New("empty key")
	}
	return filepath.Join(s.base, filepath.FromSlash(clean)), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return strings.TrimPrefix(path.Clean("/"+key), "/"), nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) URL(key string) string {
	return s.prefix + strings.TrimPrefix(path.Clean("/"+key), "/")
}
