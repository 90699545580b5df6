package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Name is the registry name of the object store backend.
const S3Name = "s3"

func init() {
	Register(S3Name, func(opts Options) (Backend, error) {
		return NewObjectStoreBackend(opts)
	})
}

// ObjectStoreBackend stores objects in S3-compatible storage through the
// MinIO SDK. Locations have the form "s3://bucket/key". Directories are
// simulated with zero-byte "key/" marker objects plus the prefixes
// implied by stored objects.
type ObjectStoreBackend struct {
	client        *minio.Client
	writeChecksum bool
	logger        *slog.Logger
}

// NewObjectStoreBackend creates an S3/MinIO backend.
func NewObjectStoreBackend(opts Options) (*ObjectStoreBackend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &ObjectStoreBackend{
		client:        client,
		writeChecksum: opts.WriteChecksum,
		logger:        logger.With("component", "s3-backend"),
	}, nil
}

// Name returns the registry name.
func (b *ObjectStoreBackend) Name() string { return S3Name }

func splitS3(loc string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(loc, "s3://")
	if !ok {
		return "", "", fmt.Errorf("storage: not an s3 location: %q", loc)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("storage: missing bucket in location: %q", loc)
	}
	return bucket, strings.TrimSuffix(key, "/"), nil
}

func mapS3Error(loc string, err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return &NotFoundError{Location: loc, Err: err}
	case "AccessDenied", "AuthorizationPermissionMismatch":
		return &PermissionError{Location: loc, Err: err}
	}
	return err
}

// Open opens the object at loc for reading.
func (b *ObjectStoreBackend) Open(ctx context.Context, loc string) (Reader, error) {
	bucket, key, err := splitS3(loc)
	if err != nil {
		return nil, err
	}

	obj, err := b.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapS3Error(loc, err)
	}

	// GetObject is lazy; Stat forces the first request so missing
	// objects fail here instead of on the first Read.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapS3Error(loc, err)
	}

	return &s3Reader{obj: obj, size: info.Size}, nil
}

// Create opens the object at loc for writing. The upload streams through
// a pipe; it completes when the writer is closed.
func (b *ObjectStoreBackend) Create(ctx context.Context, loc string, overwrite bool) (Writer, error) {
	bucket, key, err := splitS3(loc)
	if err != nil {
		return nil, err
	}

	if !overwrite {
		_, err := b.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return nil, fmt.Errorf("storage: %s already exists: %w", loc, fs.ErrExist)
		}
		if mapped := mapS3Error(loc, err); !IsNotFound(mapped) {
			return nil, mapped
		}
	}

	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := b.client.PutObject(ctx, bucket, key, pr, -1, minio.PutObjectOptions{
			SendContentMd5: b.writeChecksum,
		})
		if err != nil {
			err = mapS3Error(loc, err)
		}
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

// Delete removes the object at loc. Both the plain key and its directory
// marker are removed; S3 deletes are idempotent so a missing key is not
// an error.
func (b *ObjectStoreBackend) Delete(ctx context.Context, loc string) error {
	bucket, key, err := splitS3(loc)
	if err != nil {
		return err
	}

	if err := b.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return mapS3Error(loc, err)
	}
	if err := b.client.RemoveObject(ctx, bucket, key+"/", minio.RemoveObjectOptions{}); err != nil {
		return mapS3Error(loc, err)
	}
	return nil
}

// DeleteRecursive removes loc and everything under it.
func (b *ObjectStoreBackend) DeleteRecursive(ctx context.Context, loc string) error {
	if err := b.DeletePrefix(ctx, loc); err != nil {
		return err
	}
	return b.Delete(ctx, loc)
}

// Exists reports whether an object or simulated directory exists at loc.
func (b *ObjectStoreBackend) Exists(ctx context.Context, loc string) (bool, error) {
	bucket, key, err := splitS3(loc)
	if err != nil {
		return false, err
	}

	_, statErr := b.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if statErr == nil {
		return true, nil
	}
	if mapped := mapS3Error(loc, statErr); !IsNotFound(mapped) {
		return false, mapped
	}

	return b.prefixExists(ctx, bucket, key)
}

func (b *ObjectStoreBackend) prefixExists(ctx context.Context, bucket, key string) (bool, error) {
	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range b.client.ListObjects(listCtx, bucket, minio.ListObjectsOptions{Prefix: prefix, MaxKeys: 1}) {
		if obj.Err != nil {
			return false, mapS3Error("s3://"+bucket+"/"+prefix, obj.Err)
		}
		return true, nil
	}
	return false, nil
}

// Length returns the object size at loc.
func (b *ObjectStoreBackend) Length(ctx context.Context, loc string) (int64, error) {
	bucket, key, err := splitS3(loc)
	if err != nil {
		return 0, err
	}

	info, err := b.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, mapS3Error(loc, err)
	}
	return info.Size, nil
}

// IsDir reports whether loc is a simulated directory: a marker object or
// any object under the "loc/" prefix.
func (b *ObjectStoreBackend) IsDir(ctx context.Context, loc string) (bool, error) {
	bucket, key, err := splitS3(loc)
	if err != nil {
		return false, err
	}

	ok, err := b.prefixExists(ctx, bucket, key)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	// A plain object at the key is a file, not a missing path.
	if _, statErr := b.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); statErr == nil {
		return false, nil
	}
	return false, &NotFoundError{Location: loc, Err: fs.ErrNotExist}
}

// ListDir lists the immediate children of dir using delimiter listing.
func (b *ObjectStoreBackend) ListDir(ctx context.Context, dir string, filter func(name string) bool) ([]Entry, error) {
	bucket, key, err := splitS3(dir)
	if err != nil {
		return nil, err
	}

	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	var entries []Entry
	seen := false
	for obj := range b.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, mapS3Error(dir, obj.Err)
		}
		seen = true

		if obj.Key == prefix {
			// The directory's own marker object.
			continue
		}

		name := path.Base(strings.TrimSuffix(obj.Key, "/"))
		if filter != nil && !filter(name) {
			continue
		}

		entries = append(entries, Entry{
			Location:  "s3://" + bucket + "/" + strings.TrimSuffix(obj.Key, "/"),
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}

	if !seen && prefix != "" {
		return nil, &NotFoundError{Location: dir, Err: fs.ErrNotExist}
	}
	return entries, nil
}

// MkdirAll creates a directory marker at dir. Ancestors need no markers
// of their own: the leaf marker makes every ancestor prefix visible.
func (b *ObjectStoreBackend) MkdirAll(ctx context.Context, dir string) error {
	bucket, key, err := splitS3(dir)
	if err != nil {
		return err
	}

	_, err = b.client.PutObject(ctx, bucket, key+"/", strings.NewReader(""), 0, minio.PutObjectOptions{
		SendContentMd5: b.writeChecksum,
	})
	return mapS3Error(dir, err)
}

// ListPrefix lazily yields every object under prefix.
func (b *ObjectStoreBackend) ListPrefix(ctx context.Context, prefix string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		bucket, key, err := splitS3(prefix)
		if err != nil {
			yield(Entry{}, err)
			return
		}

		listPrefix := ""
		if key != "" {
			listPrefix = key + "/"
		}

		listCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		for obj := range b.client.ListObjects(listCtx, bucket, minio.ListObjectsOptions{Prefix: listPrefix, Recursive: true}) {
			if obj.Err != nil {
				yield(Entry{}, mapS3Error(prefix, obj.Err))
				return
			}
			if strings.HasSuffix(obj.Key, "/") {
				// Directory markers are not files.
				continue
			}

			entry := Entry{
				Location:  "s3://" + bucket + "/" + obj.Key,
				Size:      obj.Size,
				CreatedAt: obj.LastModified,
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// DeleteAll deletes every location in locs, draining the sequence even
// when individual deletions fail.
func (b *ObjectStoreBackend) DeleteAll(ctx context.Context, locs iter.Seq[string]) error {
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

// DeletePrefix removes every object under prefix using the batched
// multi-object delete API.
func (b *ObjectStoreBackend) DeletePrefix(ctx context.Context, prefix string) error {
	bucket, key, err := splitS3(prefix)
	if err != nil {
		return err
	}

	listPrefix := ""
	if key != "" {
		listPrefix = key + "/"
	}

	objectsCh := make(chan minio.ObjectInfo)
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer close(objectsCh)
		for obj := range b.client.ListObjects(listCtx, bucket, minio.ListObjectsOptions{Prefix: listPrefix, Recursive: true}) {
			if obj.Err != nil {
				return
			}
			select {
			case objectsCh <- obj:
			case <-listCtx.Done():
				return
			}
		}
	}()

	var failed int
	var lastErr error
	for rmErr := range b.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rmErr.Err != nil {
			b.logger.Warn("prefix delete failed", "bucket", bucket, "key", rmErr.ObjectName, "error", rmErr.Err)
			failed++
			lastErr = rmErr.Err
		}
	}

	if failed > 0 {
		return &BulkDeleteError{Failed: failed, Err: mapS3Error(prefix, lastErr)}
	}
	return nil
}

type s3Reader struct {
	obj  *minio.Object
	size int64
}

func (r *s3Reader) Read(p []byte) (int, error)                { return r.obj.Read(p) }
func (r *s3Reader) Seek(off int64, whence int) (int64, error) { return r.obj.Seek(off, whence) }
func (r *s3Reader) Close() error                              { return r.obj.Close() }
func (r *s3Reader) Size() int64                               { return r.size }

type s3Writer struct {
	pw   *io.PipeWriter
	done chan error
	pos  int64
}

func (w *s3Writer) Write(p []byte) (int, error) {
	n, err := w.pw.Write(p)
	w.pos += int64(n)
	return n, err
}

func (w *s3Writer) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

func (w *s3Writer) Pos() int64 { return w.pos }

var _ BulkBackend = (*ObjectStoreBackend)(nil)
