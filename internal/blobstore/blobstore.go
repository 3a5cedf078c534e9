// Package blobstore provides the byte-addressable persistence contract the
// index relies on. The index does not care whether blobs live on local disk
// or in an object store; it only needs durable writes and consistent reads.
package blobstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Read for keys that were never written.
var ErrKeyNotFound = errors.New("blob key not found")

type Store interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}
