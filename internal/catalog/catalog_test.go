package catalog

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/janovincze/lakepath/internal/storage"
)

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	root := t.TempDir()

	c, err := New(Config{
		Name:          "test",
		WarehouseRoot: root,
		Backend:       storage.NewPosixBackend(nil),
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, root
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Backend: storage.NewPosixBackend(nil)}, nil); err == nil {
		t.Error("expected error for empty warehouse root")
	}
	if _, err := New(Config{WarehouseRoot: "/tmp/w"}, nil); err == nil {
		t.Error("expected error for nil backend")
	}
}

func TestDefaultLocation(t *testing.T) {
	c, _ := newTestCatalog(t)

	tests := []struct {
		name  string
		ident TableIdentifier
		want  string
	}{
		{"nested", TableIdentifier{Namespace: Namespace{"a", "b"}, Name: "t"}, "a/b/t"},
		{"single", TableIdentifier{Namespace: Namespace{"db"}, Name: "events"}, "db/events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.DefaultLocation(tt.ident)
			if got != tt.want {
				t.Errorf("DefaultLocation = %q, want %q", got, tt.want)
			}
			if strings.HasSuffix(got, "/") {
				t.Errorf("DefaultLocation %q has a trailing separator", got)
			}
		})
	}
}

func TestListTablesFiltersTableRoots(t *testing.T) {
	c, root := newTestCatalog(t)
	ctx := context.Background()

	for _, name := range []string{"t1", "t2", "t3"} {
		mkTableDir(t, root, "db", name)
	}
	mkNamespaceDir(t, root, "db", "plain1")
	mkNamespaceDir(t, root, "db", "plain2")
	if err := os.WriteFile(filepath.Join(root, "db", "stray.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	idents, err := c.ListTables(ctx, Namespace{"db"})
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}

	var names []string
	for _, id := range idents {
		names = append(names, id.Name)
	}
	slices.Sort(names)

	if want := []string{"t1", "t2", "t3"}; !slices.Equal(names, want) {
		t.Errorf("ListTables = %v, want %v", names, want)
	}
}

func TestListTablesValidation(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()

	if _, err := c.ListTables(ctx, nil); err == nil {
		t.Error("expected error for empty namespace")
	}

	var nf *NamespaceNotFoundError
	_, err := c.ListTables(ctx, Namespace{"absent"})
	if !errors.As(err, &nf) {
		t.Errorf("expected NamespaceNotFoundError, got %v", err)
	}
}

func TestListNamespacesExcludesTableRoots(t *testing.T) {
	c, root := newTestCatalog(t)
	ctx := context.Background()

	mkTableDir(t, root, "db", "events")
	mkNamespaceDir(t, root, "db", "staging")
	mkNamespaceDir(t, root, "db", "archive")

	namespaces, err := c.ListNamespaces(ctx, Namespace{"db"})
	if err != nil {
		t.Fatalf("ListNamespaces: %v", err)
	}

	var names []string
	for _, ns := range namespaces {
		names = append(names, ns.String())
	}
	slices.Sort(names)

	if want := []string{"db.archive", "db.staging"}; !slices.Equal(names, want) {
		t.Errorf("ListNamespaces = %v, want %v", names, want)
	}
}

func TestListNamespacesRoot(t *testing.T) {
	c, root := newTestCatalog(t)
	ctx := context.Background()

	mkNamespaceDir(t, root, "db1")
	mkNamespaceDir(t, root, "db2")

	// The root namespace is implicitly valid.
	namespaces, err := c.ListNamespaces(ctx, nil)
	if err != nil {
		t.Fatalf("ListNamespaces: %v", err)
	}
	if len(namespaces) != 2 {
		t.Errorf("got %d namespaces, want 2", len(namespaces))
	}
}

func TestListNamespacesMissingParent(t *testing.T) {
	c, _ := newTestCatalog(t)

	var nf *NamespaceNotFoundError
	_, err := c.ListNamespaces(context.Background(), Namespace{"absent"})
	if !errors.As(err, &nf) {
		t.Errorf("expected NamespaceNotFoundError, got %v", err)
	}
}

func TestCreateNamespace(t *testing.T) {
	c, root := newTestCatalog(t)
	ctx := context.Background()

	if err := c.CreateNamespace(ctx, Namespace{"a", "b"}, nil); err != nil {
		t.Fatalf("CreateNamespace: %v", err)
	}

	info, err := os.Stat(filepath.Join(root, "a", "b"))
	if err != nil || !info.IsDir() {
		t.Fatalf("namespace directory missing: %v", err)
	}

	// Second creation collides.
	var ae *AlreadyExistsError
	if err := c.CreateNamespace(ctx, Namespace{"a", "b"}, nil); !errors.As(err, &ae) {
		t.Errorf("expected AlreadyExistsError, got %v", err)
	}
}

func TestCreateNamespaceRejectsMetadata(t *testing.T) {
	c, _ := newTestCatalog(t)

	err := c.CreateNamespace(context.Background(), Namespace{"a"}, map[string]string{"owner": "x"})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

func TestCreateNamespaceRejectsEmpty(t *testing.T) {
	c, _ := newTestCatalog(t)

	if err := c.CreateNamespace(context.Background(), nil, nil); err == nil {
		t.Error("expected error for empty namespace")
	}
}

func TestDropNamespace(t *testing.T) {
	c, root := newTestCatalog(t)
	ctx := context.Background()

	t.Run("empty_namespace_dropped", func(t *testing.T) {
		if err := c.CreateNamespace(ctx, Namespace{"a", "b"}, nil); err != nil {
			t.Fatal(err)
		}

		ok, err := c.DropNamespace(ctx, Namespace{"a", "b"})
		if err != nil {
			t.Fatalf("DropNamespace: %v", err)
		}
		if !ok {
			t.Error("DropNamespace = false, want true")
		}
		if _, err := os.Stat(filepath.Join(root, "a", "b")); !os.IsNotExist(err) {
			t.Error("namespace directory still present")
		}
	})

	t.Run("non_empty_blocked", func(t *testing.T) {
		mkTableDir(t, root, "c", "d", "events")

		var ne *NamespaceNotEmptyError
		_, err := c.DropNamespace(ctx, Namespace{"c", "d"})
		if !errors.As(err, &ne) {
			t.Errorf("expected NamespaceNotEmptyError, got %v", err)
		}
	})

	t.Run("missing_is_noop", func(t *testing.T) {
		ok, err := c.DropNamespace(ctx, Namespace{"nope"})
		if err != nil {
			t.Fatalf("DropNamespace: %v", err)
		}
		if ok {
			t.Error("DropNamespace = true for missing namespace")
		}
	})

	t.Run("root_is_noop", func(t *testing.T) {
		ok, err := c.DropNamespace(ctx, nil)
		if err != nil {
			t.Fatalf("DropNamespace: %v", err)
		}
		if ok {
			t.Error("DropNamespace = true for root namespace")
		}
	})
}

func TestLoadNamespaceMetadata(t *testing.T) {
	c, root := newTestCatalog(t)
	ctx := context.Background()

	mkNamespaceDir(t, root, "db", "staging")

	props, err := c.LoadNamespaceMetadata(ctx, Namespace{"db", "staging"})
	if err != nil {
		t.Fatalf("LoadNamespaceMetadata: %v", err)
	}
	if props["location"] != "db/staging" {
		t.Errorf("location = %q, want %q", props["location"], "db/staging")
	}

	var nf *NamespaceNotFoundError
	if _, err := c.LoadNamespaceMetadata(ctx, Namespace{"absent"}); !errors.As(err, &nf) {
		t.Errorf("expected NamespaceNotFoundError, got %v", err)
	}
	if _, err := c.LoadNamespaceMetadata(ctx, nil); !errors.As(err, &nf) {
		t.Errorf("expected NamespaceNotFoundError for root, got %v", err)
	}
}

func TestNamespacePropertiesUnsupported(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()

	err := c.SetNamespaceProperties(ctx, Namespace{"db"}, map[string]string{"k": "v"})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("SetNamespaceProperties: expected ErrNotSupported, got %v", err)
	}

	err = c.RemoveNamespaceProperties(ctx, Namespace{"db"}, []string{"k"})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("RemoveNamespaceProperties: expected ErrNotSupported, got %v", err)
	}
}

func TestRenameTableUnsupported(t *testing.T) {
	c, _ := newTestCatalog(t)

	from := TableIdentifier{Namespace: Namespace{"db"}, Name: "a"}
	to := TableIdentifier{Namespace: Namespace{"db"}, Name: "b"}

	if err := c.RenameTable(context.Background(), from, to); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

// orderBackend records the order of delete operations.
type orderBackend struct {
	*storage.PosixBackend
	ops []string
}

func (b *orderBackend) Delete(ctx context.Context, loc string) error {
	b.ops = append(b.ops, "delete "+loc)
	return b.PosixBackend.Delete(ctx, loc)
}

func (b *orderBackend) DeleteAll(ctx context.Context, locs iter.Seq[string]) error {
	var recorded []string
	for loc := range locs {
		b.ops = append(b.ops, "delete "+loc)
		recorded = append(recorded, loc)
	}
	return b.PosixBackend.DeleteAll(ctx, slices.Values(recorded))
}

func (b *orderBackend) DeleteRecursive(ctx context.Context, loc string) error {
	b.ops = append(b.ops, "delete-recursive "+loc)
	return b.PosixBackend.DeleteRecursive(ctx, loc)
}

// staticProvider serves fixed metadata for one table location.
type staticProvider struct {
	location string
	files    []string
}

func (p *staticProvider) Current(ctx context.Context, tableLocation string) (*TableMetadata, error) {
	if tableLocation != p.location {
		return nil, nil
	}
	return &TableMetadata{Location: p.location, Files: p.files}, nil
}

func TestDropTablePurgeOrdering(t *testing.T) {
	root := t.TempDir()
	mkTableDir(t, root, "db", "events")

	// A data file referenced by the table but living outside its
	// directory.
	external := filepath.Join(root, "external", "part-0.parquet")
	if err := os.MkdirAll(filepath.Dir(external), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(external, []byte("pp"), 0o644); err != nil {
		t.Fatal(err)
	}

	backend := &orderBackend{PosixBackend: storage.NewPosixBackend(nil)}
	provider := &staticProvider{
		location: "db/events",
		files:    []string{"external/part-0.parquet"},
	}

	c, err := New(Config{
		Name:          "test",
		WarehouseRoot: root,
		Backend:       backend,
		Metadata:      provider,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := c.DropTable(context.Background(), TableIdentifier{Namespace: Namespace{"db"}, Name: "events"}, true)
	if err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if !ok {
		t.Fatal("DropTable = false, want true")
	}

	if len(backend.ops) != 2 {
		t.Fatalf("got %d delete operations, want 2: %v", len(backend.ops), backend.ops)
	}
	if !strings.HasPrefix(backend.ops[0], "delete ") || !strings.HasSuffix(backend.ops[0], "part-0.parquet") {
		t.Errorf("first operation should purge the referenced file, got %q", backend.ops[0])
	}
	if !strings.HasPrefix(backend.ops[1], "delete-recursive ") {
		t.Errorf("second operation should remove the table directory, got %q", backend.ops[1])
	}

	if _, err := os.Stat(external); !os.IsNotExist(err) {
		t.Error("referenced file not purged")
	}
	if _, err := os.Stat(filepath.Join(root, "db", "events")); !os.IsNotExist(err) {
		t.Error("table directory not removed")
	}
}

func TestDropTableMissing(t *testing.T) {
	c, _ := newTestCatalog(t)

	ok, err := c.DropTable(context.Background(), TableIdentifier{Namespace: Namespace{"db"}, Name: "nope"}, false)
	if err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if ok {
		t.Error("DropTable = true for missing table")
	}
}

func TestDropTableWithoutPurgeKeepsExternalFiles(t *testing.T) {
	root := t.TempDir()
	mkTableDir(t, root, "db", "events")

	external := filepath.Join(root, "external", "part-0.parquet")
	if err := os.MkdirAll(filepath.Dir(external), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(external, []byte("pp"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := New(Config{
		Name:          "test",
		WarehouseRoot: root,
		Backend:       storage.NewPosixBackend(nil),
		Metadata: &staticProvider{
			location: "db/events",
			files:    []string{"external/part-0.parquet"},
		},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := c.DropTable(context.Background(), TableIdentifier{Namespace: Namespace{"db"}, Name: "events"}, false)
	if err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if !ok {
		t.Fatal("DropTable = false, want true")
	}

	if _, err := os.Stat(external); err != nil {
		t.Error("external file should survive a non-purging drop")
	}
}

func TestBuildTableLocationRules(t *testing.T) {
	c, _ := newTestCatalog(t)
	ident := TableIdentifier{Namespace: Namespace{"db"}, Name: "events"}

	t.Run("default_accepted", func(t *testing.T) {
		b := c.BuildTable(ident).WithLocation("db/events")
		if err := b.Create(context.Background()); err != nil {
			t.Errorf("Create: %v", err)
		}
	})

	t.Run("empty_accepted", func(t *testing.T) {
		b := c.BuildTable(ident).WithLocation("")
		if b.err != nil {
			t.Errorf("unexpected builder error: %v", b.err)
		}
	})

	t.Run("custom_rejected", func(t *testing.T) {
		b := c.BuildTable(ident).WithLocation("elsewhere/events")
		if err := b.Create(context.Background()); err == nil {
			t.Error("expected error for custom location")
		}
	})
}

func TestBuildTableExistingCollision(t *testing.T) {
	c, root := newTestCatalog(t)
	mkTableDir(t, root, "db", "events")

	ident := TableIdentifier{Namespace: Namespace{"db"}, Name: "events"}

	var ae *TableAlreadyExistsError
	err := c.BuildTable(ident).Create(context.Background())
	if !errors.As(err, &ae) {
		t.Errorf("expected TableAlreadyExistsError, got %v", err)
	}
}

func TestTableExists(t *testing.T) {
	c, root := newTestCatalog(t)
	mkTableDir(t, root, "db", "events")
	ctx := context.Background()

	ok, err := c.TableExists(ctx, TableIdentifier{Namespace: Namespace{"db"}, Name: "events"})
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if !ok {
		t.Error("TableExists = false, want true")
	}

	ok, err = c.TableExists(ctx, TableIdentifier{Namespace: Namespace{"db"}, Name: "absent"})
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if ok {
		t.Error("TableExists = true for missing table")
	}
}

func TestParseNamespace(t *testing.T) {
	tests := []struct {
		in   string
		want Namespace
	}{
		{"", nil},
		{"db", Namespace{"db"}},
		{"a.b.c", Namespace{"a", "b", "c"}},
	}

	for _, tt := range tests {
		got := ParseNamespace(tt.in)
		if !slices.Equal(got, tt.want) {
			t.Errorf("ParseNamespace(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
