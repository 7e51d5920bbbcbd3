// Package storage provides the backing-object stores used to hold drop
// payloads. A Store keeps opaque byte objects under caller-chosen keys;
// session and file metadata never live here.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrPathViolation is returned when a key would resolve outside the
// store's designated root. It is a contract violation and is never
// downgraded to a not-found result.
var ErrPathViolation = errors.New("storage: path escapes root")

// Store is the minimal object store contract the drop core depends on.
// Keys are opaque names; a missing key surfaces an error matching
// fs.ErrNotExist via errors.Is.
type Store interface {
	// Create opens a writer for a new object. The object becomes
	// visible once the writer is closed without error.
	Create(ctx context.Context, key string) (io.WriteCloser, error)

	// Open returns a reader over the object and its size in bytes.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Remove deletes the object.
	Remove(ctx context.Context, key string) error

	// Exists reports whether the object is present.
	Exists(ctx context.Context, key string) (bool, error)
}
