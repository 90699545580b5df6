package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/janovincze/lakepath/internal/storage"
)

const (
	// MetadataDirName is the child directory holding a table's metadata
	// files. Its presence (with at least one metadata file) is what
	// distinguishes a table root from a namespace.
	MetadataDirName = "metadata"

	// MetadataFileSuffix is the fixed suffix of table-metadata files.
	MetadataFileSuffix = ".metadata.json"
)

// ClassifierConfig configures directory classification.
type ClassifierConfig struct {
	// Backend is the storage backend classification runs against.
	Backend storage.Backend

	// SuppressPermissionErrors makes permission-denied failures from
	// the backend classify as "does not exist" instead of propagating.
	// Some object stores lag access-control metadata behind directory
	// creation; with this off (the default) such failures are fatal.
	SuppressPermissionErrors bool

	// PermissionErrorMatch is an extra message substring identifying
	// the backend's permission-denied class, for backends whose
	// failures only surface as opaque messages.
	PermissionErrorMatch string

	// Logger is the structured logger; defaults to slog.Default.
	Logger *slog.Logger
}

// Classifier decides whether a directory is a table root, a namespace,
// or neither, using only existence checks and immediate-children
// listings. It holds no state and caches nothing: every answer reflects
// the backend's current consistency.
type Classifier struct {
	backend          storage.Backend
	suppressPermErr  bool
	permErrSubstring string
	logger           *slog.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		backend:          cfg.Backend,
		suppressPermErr:  cfg.SuppressPermissionErrors,
		permErrSubstring: cfg.PermissionErrorMatch,
		logger:           logger.With("component", "classifier"),
	}
}

func (c *Classifier) tolerate(err error) bool {
	return c.suppressPermErr && storage.IsPermission(err, c.permErrSubstring)
}

// IsDirectory reports whether path exists and is a directory. A missing
// path is false, not an error.
func (c *Classifier) IsDirectory(ctx context.Context, path string) (bool, error) {
	ok, err := c.backend.IsDir(ctx, path)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		if c.tolerate(err) {
			c.logger.Warn("unable to stat directory", "path", path, "error", err)
			return false, nil
		}
		return false, fmt.Errorf("classify %s: %w", path, err)
	}
	return ok, nil
}

// IsTableRoot reports whether path holds a table: a metadata child
// directory containing at least one metadata file. A missing metadata
// directory is false, not an error.
func (c *Classifier) IsTableRoot(ctx context.Context, path string) (bool, error) {
	metadataDir := strings.TrimSuffix(path, "/") + "/" + MetadataDirName

	entries, err := c.backend.ListDir(ctx, metadataDir, func(name string) bool {
		return strings.HasSuffix(name, MetadataFileSuffix)
	})
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		if c.tolerate(err) {
			c.logger.Warn("unable to list metadata directory", "path", metadataDir, "error", err)
			return false, nil
		}
		return false, fmt.Errorf("classify %s: %w", path, err)
	}
	return len(entries) >= 1, nil
}

// IsNamespace reports whether path is a namespace: a directory that is
// not a table root. Table classification takes precedence whenever the
// metadata marker exists, so the two can never both be true.
func (c *Classifier) IsNamespace(ctx context.Context, path string) (bool, error) {
	isDir, err := c.IsDirectory(ctx, path)
	if err != nil || !isDir {
		return false, err
	}

	isTable, err := c.IsTableRoot(ctx, path)
	if err != nil {
		return false, err
	}
	return !isTable, nil
}
