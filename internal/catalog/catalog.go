// Package catalog implements a path-based table catalog over a directory
// tree. The tree is the only persisted state: namespaces are directories,
// tables are directories holding a metadata marker, and every location is
// a pure function of the identifier.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/janovincze/lakepath/internal/fileio"
	"github.com/janovincze/lakepath/internal/location"
	"github.com/janovincze/lakepath/internal/metrics"
	"github.com/janovincze/lakepath/internal/storage"
)

// Config holds catalog configuration.
type Config struct {
	// Name identifies the catalog in logs.
	Name string

	// WarehouseRoot is the absolute base location of the warehouse
	// tree. Required; an empty root is a fatal configuration error.
	WarehouseRoot string

	// Backend is the storage backend. It must support prefix listing
	// and bulk delete.
	Backend storage.Backend

	// Metadata loads current table metadata for drop/purge. When nil, a
	// fallback provider is used that recognizes tables but knows of no
	// files referenced outside the table directory.
	Metadata MetadataProvider

	// SuppressPermissionErrors and PermissionErrorMatch configure the
	// classifier's permission tolerance (default: disabled).
	SuppressPermissionErrors bool
	PermissionErrorMatch     string
}

// Catalog enumerates, creates and deletes namespaces and tables over a
// directory tree. It introduces no locking, caching or retries: every
// call is one or more synchronous backend operations, and concurrent
// callers racing on the same paths resolve to whatever outcome the
// backend's consistency model produces.
type Catalog struct {
	name       string
	root       string
	backend    storage.Backend
	classifier *Classifier
	io         *fileio.RelativeIO
	metadata   MetadataProvider
	logger     *slog.Logger
}

// New validates cfg and builds the catalog. Validation failures are
// configuration errors raised before any I/O.
func New(cfg Config, logger *slog.Logger) (*Catalog, error) {
	if cfg.WarehouseRoot == "" {
		return nil, fmt.Errorf("catalog: warehouse root must not be empty")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("catalog: backend must not be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	rio, err := fileio.New(fileio.Config{
		WarehouseRoot: cfg.WarehouseRoot,
		Backend:       cfg.Backend,
	}, logger)
	if err != nil {
		return nil, err
	}

	classifier := NewClassifier(ClassifierConfig{
		Backend:                  cfg.Backend,
		SuppressPermissionErrors: cfg.SuppressPermissionErrors,
		PermissionErrorMatch:     cfg.PermissionErrorMatch,
		Logger:                   logger,
	})

	md := cfg.Metadata
	if md == nil {
		md = &classifierProvider{classifier: classifier, root: rio.Root()}
	}

	return &Catalog{
		name:       cfg.Name,
		root:       rio.Root(),
		backend:    cfg.Backend,
		classifier: classifier,
		io:         rio,
		metadata:   md,
		logger:     logger.With("component", "catalog", "catalog", cfg.Name),
	}, nil
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// IO returns the relativizing file accessor bound to this catalog's
// warehouse root.
func (c *Catalog) IO() *fileio.RelativeIO { return c.io }

// DefaultLocation returns the warehouse-relative location for ident:
// the namespace segments and table name joined by the path separator,
// with no trailing separator. Stable and reproducible from the
// identifier alone.
func (c *Catalog) DefaultLocation(ident TableIdentifier) string {
	return ident.location()
}

func (t TableIdentifier) location() string {
	if t.Namespace.IsEmpty() {
		return t.Name
	}
	return t.Namespace.Path() + "/" + t.Name
}

// nsPath returns the absolute directory path of a namespace. The root
// namespace maps to the warehouse root itself.
func (c *Catalog) nsPath(ns Namespace) string {
	if ns.IsEmpty() {
		return c.root[:len(c.root)-1]
	}
	return c.root + ns.Path()
}

func (c *Catalog) tablePath(ident TableIdentifier) string {
	return c.root + ident.location()
}

func (c *Catalog) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.CatalogOpsTotal.WithLabelValues(op, status).Inc()
	metrics.CatalogOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ListNamespaces enumerates the immediate child namespaces of parent.
// The root namespace (empty identifier) is implicitly valid; any other
// parent must classify as a namespace. Order is whatever the backend
// listing yields.
func (c *Catalog) ListNamespaces(ctx context.Context, parent Namespace) (_ []Namespace, err error) {
	start := time.Now()
	defer func() { c.observe("list_namespaces", start, err) }()

	parentPath := c.nsPath(parent)

	if !parent.IsEmpty() {
		ok, err := c.classifier.IsNamespace(ctx, parentPath)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &NamespaceNotFoundError{Namespace: parent}
		}
	}

	entries, err := c.backend.ListDir(ctx, parentPath, nil)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, &NamespaceNotFoundError{Namespace: parent}
		}
		return nil, fmt.Errorf("list namespaces under %s: %w", parent, err)
	}

	var namespaces []Namespace
	for _, entry := range entries {
		ok, err := c.classifier.IsNamespace(ctx, entry.Location)
		if err != nil {
			return nil, err
		}
		if ok {
			namespaces = append(namespaces, parent.Child(baseName(entry.Location)))
		}
	}
	return namespaces, nil
}

// ListTables enumerates the tables directly under namespace. The result
// has set semantics: duplicates from backend listing anomalies are
// collapsed, and no ordering is guaranteed.
func (c *Catalog) ListTables(ctx context.Context, namespace Namespace) (_ []TableIdentifier, err error) {
	start := time.Now()
	defer func() { c.observe("list_tables", start, err) }()

	if namespace.IsEmpty() {
		return nil, fmt.Errorf("catalog: missing database in table identifier")
	}

	nsPath := c.nsPath(namespace)
	isNS, err := c.classifier.IsDirectory(ctx, nsPath)
	if err != nil {
		return nil, err
	}
	if !isNS {
		return nil, &NamespaceNotFoundError{Namespace: namespace}
	}

	entries, err := c.backend.ListDir(ctx, nsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list tables under %s: %w", namespace, err)
	}

	seen := make(map[string]struct{})
	var idents []TableIdentifier
	for _, entry := range entries {
		isDir, err := c.classifier.IsDirectory(ctx, entry.Location)
		if err != nil {
			return nil, err
		}
		if !isDir {
			continue
		}

		isTable, err := c.classifier.IsTableRoot(ctx, entry.Location)
		if err != nil {
			return nil, err
		}
		if !isTable {
			continue
		}

		name := baseName(entry.Location)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		idents = append(idents, TableIdentifier{Namespace: namespace, Name: name})
	}
	return idents, nil
}

// CreateNamespace creates the namespace directory and any missing
// ancestors. Structured namespace metadata is unsupported by this
// catalog shape; a non-empty meta map is rejected. Creation is not
// atomic across ancestor levels.
func (c *Catalog) CreateNamespace(ctx context.Context, namespace Namespace, meta map[string]string) (err error) {
	start := time.Now()
	defer func() { c.observe("create_namespace", start, err) }()

	if namespace.IsEmpty() {
		return fmt.Errorf("catalog: cannot create namespace with empty name")
	}
	if len(meta) > 0 {
		return fmt.Errorf("catalog: cannot create namespace %s with metadata: %w", namespace, ErrNotSupported)
	}

	nsPath := c.nsPath(namespace)
	exists, err := c.classifier.IsNamespace(ctx, nsPath)
	if err != nil {
		return err
	}
	if exists {
		return &AlreadyExistsError{Namespace: namespace}
	}

	if err := c.backend.MkdirAll(ctx, nsPath); err != nil {
		return fmt.Errorf("create namespace %s: %w", namespace, err)
	}

	c.logger.Info("namespace created", "namespace", namespace.String())
	return nil
}

// DropNamespace removes an empty namespace. It returns false (without
// error) when the path is not a namespace, and fails when the namespace
// has any children: deletion is non-recursive by design.
func (c *Catalog) DropNamespace(ctx context.Context, namespace Namespace) (_ bool, err error) {
	start := time.Now()
	defer func() { c.observe("drop_namespace", start, err) }()

	if namespace.IsEmpty() {
		return false, nil
	}

	nsPath := c.nsPath(namespace)
	ok, err := c.classifier.IsNamespace(ctx, nsPath)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	entries, err := c.backend.ListDir(ctx, nsPath, nil)
	if err != nil {
		return false, fmt.Errorf("drop namespace %s: %w", namespace, err)
	}
	if len(entries) > 0 {
		return false, &NamespaceNotEmptyError{Namespace: namespace}
	}

	if err := c.backend.Delete(ctx, nsPath); err != nil {
		return false, fmt.Errorf("drop namespace %s: %w", namespace, err)
	}

	c.logger.Info("namespace dropped", "namespace", namespace.String())
	return true, nil
}

// LoadNamespaceMetadata returns the namespace's properties. A path-based
// catalog stores nothing beyond the directory itself, so the only
// property is the warehouse-relative location.
func (c *Catalog) LoadNamespaceMetadata(ctx context.Context, namespace Namespace) (_ map[string]string, err error) {
	start := time.Now()
	defer func() { c.observe("load_namespace", start, err) }()

	nsPath := c.nsPath(namespace)

	if namespace.IsEmpty() {
		return nil, &NamespaceNotFoundError{Namespace: namespace}
	}
	ok, err := c.classifier.IsNamespace(ctx, nsPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NamespaceNotFoundError{Namespace: namespace}
	}

	return map[string]string{
		"location": location.Relativize(nsPath, c.root),
	}, nil
}

// SetNamespaceProperties always fails: namespace properties have nowhere
// to live in a path-based catalog.
func (c *Catalog) SetNamespaceProperties(ctx context.Context, namespace Namespace, props map[string]string) error {
	return fmt.Errorf("catalog: cannot set properties on namespace %s: %w", namespace, ErrNotSupported)
}

// RemoveNamespaceProperties always fails, as SetNamespaceProperties.
func (c *Catalog) RemoveNamespaceProperties(ctx context.Context, namespace Namespace, keys []string) error {
	return fmt.Errorf("catalog: cannot remove properties on namespace %s: %w", namespace, ErrNotSupported)
}

// TableExists reports whether a table exists at ident.
func (c *Catalog) TableExists(ctx context.Context, ident TableIdentifier) (bool, error) {
	return c.classifier.IsTableRoot(ctx, c.tablePath(ident))
}

// DropTable removes the table at ident. It returns false when no table
// exists there. With purge, every data and metadata file referenced by
// the table's current metadata is deleted before the directory is
// removed: referenced files may live outside the table directory, even
// under a different root, so directory removal alone is insufficient.
// True is returned only when both the purge and the removal succeed.
func (c *Catalog) DropTable(ctx context.Context, ident TableIdentifier, purge bool) (_ bool, err error) {
	start := time.Now()
	defer func() { c.observe("drop_table", start, err) }()

	md, err := c.metadata.Current(ctx, ident.location())
	if err != nil {
		return false, fmt.Errorf("drop table %s: %w", ident, err)
	}
	if md == nil {
		c.logger.Debug("not a table", "identifier", ident.String())
		return false, nil
	}

	if purge && len(md.Files) > 0 {
		if err := c.io.DeleteAll(ctx, slices.Values(md.Files)); err != nil {
			return false, fmt.Errorf("purge table %s: %w", ident, err)
		}
	}

	if err := c.backend.DeleteRecursive(ctx, c.tablePath(ident)); err != nil {
		return false, fmt.Errorf("drop table %s: %w", ident, err)
	}

	c.logger.Info("table dropped", "identifier", ident.String(), "purged", purge)
	return true, nil
}

// RenameTable always fails. A rename here would be a physical move across
// possibly-different storage protocols.
func (c *Catalog) RenameTable(ctx context.Context, from, to TableIdentifier) error {
	return fmt.Errorf("catalog: cannot rename %s to %s: %w", from, to, ErrNotSupported)
}

func baseName(loc string) string {
	if i := strings.LastIndexByte(loc, '/'); i >= 0 {
		return loc[i+1:]
	}
	return loc
}
