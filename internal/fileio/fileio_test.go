package fileio

import (
	"context"
	"iter"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/janovincze/lakepath/internal/storage"
)

// fakeBackend records the absolute locations each operation receives and
// serves canned listings.
type fakeBackend struct {
	*storage.PosixBackend

	calls   []string
	entries []storage.Entry
	deleted []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{PosixBackend: storage.NewPosixBackend(nil)}
}

func (f *fakeBackend) record(op, loc string) {
	f.calls = append(f.calls, op+" "+loc)
}

func (f *fakeBackend) Open(ctx context.Context, loc string) (storage.Reader, error) {
	f.record("open", loc)
	return stubReader{}, nil
}

func (f *fakeBackend) Create(ctx context.Context, loc string, overwrite bool) (storage.Writer, error) {
	f.record("create", loc)
	return stubWriter{}, nil
}

func (f *fakeBackend) Delete(ctx context.Context, loc string) error {
	f.record("delete", loc)
	f.deleted = append(f.deleted, loc)
	return nil
}

func (f *fakeBackend) DeleteAll(ctx context.Context, locs iter.Seq[string]) error {
	for loc := range locs {
		f.record("delete", loc)
		f.deleted = append(f.deleted, loc)
	}
	return nil
}

func (f *fakeBackend) DeletePrefix(ctx context.Context, prefix string) error {
	f.record("delete-prefix", prefix)
	return nil
}

func (f *fakeBackend) Exists(ctx context.Context, loc string) (bool, error) {
	f.record("exists", loc)
	return true, nil
}

func (f *fakeBackend) Length(ctx context.Context, loc string) (int64, error) {
	f.record("length", loc)
	return 42, nil
}

func (f *fakeBackend) ListPrefix(ctx context.Context, prefix string) iter.Seq2[storage.Entry, error] {
	f.record("list", prefix)
	return func(yield func(storage.Entry, error) bool) {
		for _, e := range f.entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

type stubReader struct{}

func (stubReader) Read([]byte) (int, error)       { return 0, nil }
func (stubReader) Seek(int64, int) (int64, error) { return 0, nil }
func (stubReader) Close() error                   { return nil }
func (stubReader) Size() int64                    { return 42 }

type stubWriter struct{}

func (stubWriter) Write(p []byte) (int, error) { return len(p), nil }
func (stubWriter) Close() error                { return nil }
func (stubWriter) Pos() int64                  { return 0 }

const testRoot = "s3://bucket/warehouse"

func newTestIO(t *testing.T, b storage.Backend) *RelativeIO {
	t.Helper()
	rio, err := New(Config{WarehouseRoot: testRoot, Backend: b}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rio
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty_root", Config{Backend: newFakeBackend()}},
		{"nil_backend", Config{WarehouseRoot: testRoot}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

// minimalBackend satisfies storage.Backend but not storage.BulkBackend.
type minimalBackend struct{ storage.Backend }

func (minimalBackend) Name() string { return "minimal" }

func TestNewRejectsNonBulkBackend(t *testing.T) {
	_, err := New(Config{WarehouseRoot: testRoot, Backend: minimalBackend{}}, nil)
	if err == nil {
		t.Fatal("expected configuration error for backend without bulk capabilities")
	}
	if !strings.Contains(err.Error(), "prefix listing") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOperationsAbsolutize(t *testing.T) {
	b := newFakeBackend()
	rio := newTestIO(t, b)
	ctx := context.Background()

	if _, err := rio.Open(ctx, "db/t/metadata/v1.metadata.json"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := rio.Create(ctx, "db/t/metadata/v2.metadata.json", true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := rio.Delete(ctx, "db/t/data/part-0.parquet"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := rio.Exists(ctx, "db/t"); err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if _, err := rio.Length(ctx, "db/t/data/part-0.parquet"); err != nil {
		t.Fatalf("Length: %v", err)
	}

	for _, call := range b.calls {
		_, loc, _ := strings.Cut(call, " ")
		if !strings.HasPrefix(loc, testRoot+"/") {
			t.Errorf("backend saw non-absolute location: %s", call)
		}
	}
}

func TestOpenAlreadyAbsolutePassthrough(t *testing.T) {
	b := newFakeBackend()
	rio := newTestIO(t, b)

	// Absolute locations outside the root go to the backend unchanged.
	foreign := "s3://other/elsewhere/file"
	if _, err := rio.Open(context.Background(), foreign); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if want := "open " + foreign; b.calls[0] != want {
		t.Errorf("backend call = %q, want %q", b.calls[0], want)
	}
}

func TestListRelativizesEntries(t *testing.T) {
	b := newFakeBackend()
	b.entries = []storage.Entry{
		{Location: testRoot + "/db/t/data/part-0.parquet", Size: 10, CreatedAt: time.Unix(1, 0)},
		{Location: "s3://other/root/file", Size: 1},
	}
	rio := newTestIO(t, b)

	var locs []string
	for e, err := range rio.List(context.Background(), "db/t") {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		locs = append(locs, e.Location)
	}

	want := []string{
		"db/t/data/part-0.parquet",
		// Entries under a different root pass through absolute.
		"s3://other/root/file",
	}
	if !slices.Equal(locs, want) {
		t.Errorf("List = %v, want %v", locs, want)
	}
}

func TestDeleteAllIsLazy(t *testing.T) {
	b := newFakeBackend()
	rio := newTestIO(t, b)

	produced := 0
	locs := func(yield func(string) bool) {
		for _, l := range []string{"db/t/data/a", "db/t/data/b"} {
			produced++
			if !yield(l) {
				return
			}
		}
	}

	if err := rio.DeleteAll(context.Background(), locs); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	if produced != 2 {
		t.Errorf("produced %d locations, want 2", produced)
	}
	want := []string{
		testRoot + "/db/t/data/a",
		testRoot + "/db/t/data/b",
	}
	if !slices.Equal(b.deleted, want) {
		t.Errorf("deleted %v, want %v", b.deleted, want)
	}
}

func TestStreamsAreLayerOwnedTypes(t *testing.T) {
	b := newFakeBackend()
	rio := newTestIO(t, b)
	ctx := context.Background()

	f, err := rio.Open(ctx, "db/t/metadata/v1.metadata.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.Location() != "db/t/metadata/v1.metadata.json" {
		t.Errorf("Location() = %q", f.Location())
	}
	if f.Size() != 42 {
		t.Errorf("Size() = %d, want 42", f.Size())
	}

	w, err := rio.Create(ctx, "db/t/metadata/v2.metadata.json", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.Location() != "db/t/metadata/v2.metadata.json" {
		t.Errorf("Location() = %q", w.Location())
	}
}
