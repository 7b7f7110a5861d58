package storage

import "io"

// BlobStore is where autosaved feedback documents and exports land.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	List(prefix string) ([]string, error) // keys under prefix, sorted
}
