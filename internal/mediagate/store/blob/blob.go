// Package blob abstracts the object store holding uploaded media and video
// renditions.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get for a key that does not exist.
var ErrNotFound = errors.New("blob: not found")

// Object describes a stored blob.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	SHA256      string
	Metadata    map[string]string
}

// Store is implemented by the memory and S3 drivers.
type Store interface {
	// Put writes size bytes from r under obj.Key. A size of -1 means unknown.
	Put(ctx context.Context, obj Object, r io.Reader) error

	// Get opens key for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}
