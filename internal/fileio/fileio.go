// Package fileio presents file storage whose boundary locations are
// always warehouse-relative. Every operation translates locations to
// absolute form before touching the backend and re-relativizes whatever
// comes back, so persisted metadata never contains an absolute path and
// the warehouse tree can be relocated without rewriting it.
package fileio

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/janovincze/lakepath/internal/location"
	"github.com/janovincze/lakepath/internal/metrics"
	"github.com/janovincze/lakepath/internal/storage"
)

// Config holds accessor configuration.
type Config struct {
	// WarehouseRoot is the absolute base location all relative paths
	// resolve against. Required.
	WarehouseRoot string

	// Backend is the storage backend. It must satisfy
	// storage.BulkBackend; anything less is a configuration error.
	Backend storage.Backend
}

// RelativeIO is the relativizing file accessor.
type RelativeIO struct {
	root    string
	backend storage.BulkBackend
	logger  *slog.Logger
}

// New validates cfg and builds the accessor. Validation failures are
// configuration errors raised before any I/O is attempted.
func New(cfg Config, logger *slog.Logger) (*RelativeIO, error) {
	if cfg.WarehouseRoot == "" {
		return nil, fmt.Errorf("fileio: warehouse root must not be empty")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("fileio: backend must not be nil")
	}

	bulk, ok := cfg.Backend.(storage.BulkBackend)
	if !ok {
		return nil, fmt.Errorf("fileio: backend %q does not support prefix listing and bulk delete", cfg.Backend.Name())
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RelativeIO{
		root:    location.NormalizeRoot(cfg.WarehouseRoot),
		backend: bulk,
		logger:  logger.With("component", "relative-io"),
	}, nil
}

// Root returns the normalized warehouse root.
func (r *RelativeIO) Root() string { return r.root }

func (r *RelativeIO) absolute(loc string) string {
	return location.Absolutize(loc, r.root)
}

func (r *RelativeIO) relative(loc string) string {
	return location.Relativize(loc, r.root)
}

func (r *RelativeIO) count(op string) {
	metrics.StorageOpsTotal.WithLabelValues(r.backend.Name(), op).Inc()
}

// Open opens the object at loc for reading. The returned *File is always
// a layer-owned wrapper around the backend stream, never the backend's
// own type: callers that dispatch on concrete stream types must see a
// stable identity regardless of backend.
func (r *RelativeIO) Open(ctx context.Context, loc string) (*File, error) {
	r.count("open")
	rd, err := r.backend.Open(ctx, r.absolute(loc))
	if err != nil {
		return nil, err
	}
	return &File{loc: r.relative(loc), r: rd}, nil
}

// Create opens the object at loc for writing.
func (r *RelativeIO) Create(ctx context.Context, loc string, overwrite bool) (*Writer, error) {
	r.count("create")
	w, err := r.backend.Create(ctx, r.absolute(loc), overwrite)
	if err != nil {
		return nil, err
	}
	return &Writer{loc: r.relative(loc), w: w}, nil
}

// Delete removes the object at loc.
func (r *RelativeIO) Delete(ctx context.Context, loc string) error {
	r.count("delete")
	return r.backend.Delete(ctx, r.absolute(loc))
}

// DeleteAll deletes every location in locs. The sequence is consumed
// lazily; each element is absolutized as it is drawn, so arbitrarily
// large batches never materialize.
func (r *RelativeIO) DeleteAll(ctx context.Context, locs iter.Seq[string]) error {
	r.count("delete_all")
	abs := func(yield func(string) bool) {
		for loc := range locs {
			if !yield(r.absolute(loc)) {
				return
			}
		}
	}
	return r.backend.DeleteAll(ctx, abs)
}

// DeletePrefix removes every object under prefix.
func (r *RelativeIO) DeletePrefix(ctx context.Context, prefix string) error {
	r.count("delete_prefix")
	return r.backend.DeletePrefix(ctx, r.absolute(prefix))
}

// List lazily yields every object under prefix with locations
// relativized. Ordering and consistency are whatever the backend listing
// provides; nothing is buffered or sorted here.
func (r *RelativeIO) List(ctx context.Context, prefix string) iter.Seq2[storage.Entry, error] {
	r.count("list")
	inner := r.backend.ListPrefix(ctx, r.absolute(prefix))

	return func(yield func(storage.Entry, error) bool) {
		for entry, err := range inner {
			if err != nil {
				yield(storage.Entry{}, err)
				return
			}
			entry.Location = r.relative(entry.Location)
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Exists reports whether anything exists at loc. Not cached.
func (r *RelativeIO) Exists(ctx context.Context, loc string) (bool, error) {
	return r.backend.Exists(ctx, r.absolute(loc))
}

// Length returns the size of the object at loc. Not cached.
func (r *RelativeIO) Length(ctx context.Context, loc string) (int64, error) {
	return r.backend.Length(ctx, r.absolute(loc))
}

// File is the read stream decorator. It reports the warehouse-relative
// location it was opened under.
type File struct {
	loc string
	r   storage.Reader
}

// Location returns the warehouse-relative location.
func (f *File) Location() string { return f.loc }

func (f *File) Read(p []byte) (int, error)                { return f.r.Read(p) }
func (f *File) Seek(off int64, whence int) (int64, error) { return f.r.Seek(off, whence) }
func (f *File) Close() error                              { return f.r.Close() }

// Size returns the total length of the underlying object.
func (f *File) Size() int64 { return f.r.Size() }

// Writer is the write stream decorator.
type Writer struct {
	loc string
	w   storage.Writer
}

// Location returns the warehouse-relative location.
func (w *Writer) Location() string { return w.loc }

func (w *Writer) Write(p []byte) (int, error) { return w.w.Write(p) }
func (w *Writer) Close() error                { return w.w.Close() }

// Pos returns the number of bytes written so far.
func (w *Writer) Pos() int64 { return w.w.Pos() }
