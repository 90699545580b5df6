// Package storage defines the backend abstraction the catalog and file
// accessor operate against, with POSIX and S3/MinIO implementations
// selected through a static registry.
package storage

import (
	"context"
	"io"
	"iter"
	"time"
)

// Entry is a single listing result.
type Entry struct {
	// Location is the entry's full location as the backend addresses it.
	Location string

	// Size is the entry size in bytes.
	Size int64

	// CreatedAt is the entry creation time. Backends without a native
	// creation timestamp report the closest available time.
	CreatedAt time.Time
}

// Reader is a readable stream with a known total size.
type Reader interface {
	io.Reader
	io.Seeker
	io.Closer

	// Size returns the total length of the underlying object.
	Size() int64
}

// Writer is a writable stream reporting its current position.
type Writer interface {
	io.Writer
	io.Closer

	// Pos returns the number of bytes written so far.
	Pos() int64
}

// Backend is the minimal storage capability set: single-object I/O plus
// the directory primitives the classifier needs.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// Open opens the object at loc for reading.
	Open(ctx context.Context, loc string) (Reader, error)

	// Create opens the object at loc for writing. When overwrite is
	// false and the object already exists, Create fails.
	Create(ctx context.Context, loc string, overwrite bool) (Writer, error)

	// Delete removes a single object or empty directory.
	Delete(ctx context.Context, loc string) error

	// DeleteRecursive removes loc and everything under it.
	DeleteRecursive(ctx context.Context, loc string) error

	// Exists reports whether anything exists at loc.
	Exists(ctx context.Context, loc string) (bool, error)

	// Length returns the size of the object at loc.
	Length(ctx context.Context, loc string) (int64, error)

	// IsDir reports whether loc exists and is a directory. A missing
	// loc yields a *NotFoundError, not (false, nil): callers decide how
	// absence is treated.
	IsDir(ctx context.Context, loc string) (bool, error)

	// ListDir lists the immediate children of dir. A non-nil filter
	// keeps only entries whose base name it accepts. A missing dir
	// yields a *NotFoundError.
	ListDir(ctx context.Context, dir string, filter func(name string) bool) ([]Entry, error)

	// MkdirAll creates dir and any missing ancestors.
	MkdirAll(ctx context.Context, dir string) error
}

// BulkBackend extends Backend with the lazy prefix-listing and streaming
// bulk-delete capabilities the relativizing accessor requires. A backend
// either satisfies it or cannot be used there; the check happens at
// construction time.
type BulkBackend interface {
	Backend

	// ListPrefix lazily yields every object under prefix. The sequence
	// is forward-only and not restartable; it reflects the backend's
	// own listing consistency with no added buffering or ordering.
	ListPrefix(ctx context.Context, prefix string) iter.Seq2[Entry, error]

	// DeleteAll deletes every location produced by locs, consuming the
	// sequence lazily so arbitrarily large batches need no
	// materialization. Failures are counted and reported as a
	// *BulkDeleteError after the sequence is drained.
	DeleteAll(ctx context.Context, locs iter.Seq[string]) error

	// DeletePrefix removes every object under prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
