package storage

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PosixName is the registry name of the local-filesystem backend.
const PosixName = "posix"

func init() {
	Register(PosixName, func(opts Options) (Backend, error) {
		return NewPosixBackend(opts.Logger), nil
	})
}

// PosixBackend stores objects on the local filesystem. Locations may
// carry a file:// scheme or be plain absolute paths. The checksum options
// are accepted and ignored: POSIX filesystems have no checksum protocol.
type PosixBackend struct {
	logger *slog.Logger
}

// NewPosixBackend creates a local-filesystem backend.
func NewPosixBackend(logger *slog.Logger) *PosixBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PosixBackend{
		logger: logger.With("component", "posix-backend"),
	}
}

// Name returns the registry name.
func (b *PosixBackend) Name() string { return PosixName }

func posixPath(loc string) string {
	return strings.TrimPrefix(loc, "file://")
}

// mapPathError converts os-level failures into the backend error types.
func mapPathError(loc string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return &NotFoundError{Location: loc, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &PermissionError{Location: loc, Err: err}
	default:
		return err
	}
}

// Open opens the file at loc for reading.
func (b *PosixBackend) Open(ctx context.Context, loc string) (Reader, error) {
	path := posixPath(loc)

	f, err := os.Open(path)
	if err != nil {
		return nil, mapPathError(loc, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, mapPathError(loc, err)
	}

	return &posixReader{f: f, size: info.Size()}, nil
}

// Create opens the file at loc for writing, creating missing parents.
func (b *PosixBackend) Create(ctx context.Context, loc string, overwrite bool) (Writer, error) {
	path := posixPath(loc)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, mapPathError(loc, err)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, mapPathError(loc, err)
	}

	return &posixWriter{f: f}, nil
}

// Delete removes a single file or empty directory.
func (b *PosixBackend) Delete(ctx context.Context, loc string) error {
	return mapPathError(loc, os.Remove(posixPath(loc)))
}

// DeleteRecursive removes loc and everything under it.
func (b *PosixBackend) DeleteRecursive(ctx context.Context, loc string) error {
	return mapPathError(loc, os.RemoveAll(posixPath(loc)))
}

// Exists reports whether anything exists at loc.
func (b *PosixBackend) Exists(ctx context.Context, loc string) (bool, error) {
	_, err := os.Stat(posixPath(loc))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, mapPathError(loc, err)
}

// Length returns the file size at loc.
func (b *PosixBackend) Length(ctx context.Context, loc string) (int64, error) {
	info, err := os.Stat(posixPath(loc))
	if err != nil {
		return 0, mapPathError(loc, err)
	}
	return info.Size(), nil
}

// IsDir reports whether loc is a directory.
func (b *PosixBackend) IsDir(ctx context.Context, loc string) (bool, error) {
	info, err := os.Stat(posixPath(loc))
	if err != nil {
		return false, mapPathError(loc, err)
	}
	return info.IsDir(), nil
}

// ListDir lists the immediate children of dir, optionally filtered by
// base name.
func (b *PosixBackend) ListDir(ctx context.Context, dir string, filter func(name string) bool) ([]Entry, error) {
	path := posixPath(dir)

	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, mapPathError(dir, err)
	}

	var entries []Entry
	for _, de := range dirents {
		if filter != nil && !filter(de.Name()) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Raced with a concurrent delete.
				continue
			}
			return nil, mapPathError(dir, err)
		}

		entries = append(entries, Entry{
			Location:  strings.TrimSuffix(dir, "/") + "/" + de.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	return entries, nil
}

// MkdirAll creates dir and any missing ancestors.
func (b *PosixBackend) MkdirAll(ctx context.Context, dir string) error {
	return mapPathError(dir, os.MkdirAll(posixPath(dir), 0o755))
}

// ListPrefix lazily walks every file under prefix.
func (b *PosixBackend) ListPrefix(ctx context.Context, prefix string) iter.Seq2[Entry, error] {
	root := posixPath(prefix)

	return func(yield func(Entry, error) bool) {
		err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if de.IsDir() {
				return nil
			}

			info, err := de.Info()
			if err != nil {
				return err
			}

			// Re-attach whatever prefix form the caller used (plain
			// path or file:// URL).
			entry := Entry{
				Location:  prefix + strings.TrimPrefix(path, root),
				Size:      info.Size(),
				CreatedAt: info.ModTime(),
			}
			if !yield(entry, nil) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(Entry{}, mapPathError(prefix, err))
		}
	}
}

// DeleteAll deletes every location in locs, draining the sequence even
// when individual deletions fail.
func (b *PosixBackend) DeleteAll(ctx context.Context, locs iter.Seq[string]) error {
	var failed int
	var lastErr error

	for loc := range locs {
		if err := b.Delete(ctx, loc); err != nil {
			b.logger.Warn("bulk delete failed", "location", loc, "error", err)
			failed++
			lastErr = err
		}
	}

	if failed > 0 {
		return &BulkDeleteError{Failed: failed, Err: lastErr}
	}
	return nil
}

// DeletePrefix removes everything under prefix.
func (b *PosixBackend) DeletePrefix(ctx context.Context, prefix string) error {
	return b.DeleteRecursive(ctx, prefix)
}

type posixReader struct {
	f    *os.File
	size int64
}

func (r *posixReader) Read(p []byte) (int, error)                { return r.f.Read(p) }
func (r *posixReader) Seek(off int64, whence int) (int64, error) { return r.f.Seek(off, whence) }
func (r *posixReader) Close() error                              { return r.f.Close() }
func (r *posixReader) Size() int64                               { return r.size }

type posixWriter struct {
	f   *os.File
	pos int64
}

func (w *posixWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.pos += int64(n)
	return n, err
}

func (w *posixWriter) Close() error { return w.f.Close() }
func (w *posixWriter) Pos() int64   { return w.pos }

var _ BulkBackend = (*PosixBackend)(nil)
