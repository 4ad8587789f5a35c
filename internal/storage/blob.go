package storage

import "io"

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	URL(key string) string // public URL the HTTP layer serves the blob at
}
