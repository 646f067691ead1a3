package storage

import "io"

// BlobStore holds prompt media referenced by exercise prompt_refs.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
