package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TableAlreadyExistsError indicates a table creation collision.
type TableAlreadyExistsError struct {
	Table TableIdentifier
}

func (e *TableAlreadyExistsError) Error() string {
	return fmt.Sprintf("catalog: table already exists: %s", e.Table)
}

// TableBuilder stages the creation of a table. The table's location is
// always the identifier-derived default; the layout on storage is what
// makes a table discoverable, so no other location is accepted.
type TableBuilder struct {
	catalog  *Catalog
	ident    TableIdentifier
	location string
	props    map[string]string
	err      error
}

// BuildTable starts a builder for ident.
func (c *Catalog) BuildTable(ident TableIdentifier) *TableBuilder {
	return &TableBuilder{
		catalog:  c,
		ident:    ident,
		location: c.DefaultLocation(ident),
		props:    make(map[string]string),
	}
}

// WithLocation accepts only the identifier-derived default location (or
// the empty string). Any other value poisons the builder: location is a
// pure function of the identifier here, never a caller override.
func (b *TableBuilder) WithLocation(loc string) *TableBuilder {
	if loc != "" && loc != b.location {
		b.err = fmt.Errorf("catalog: cannot set a custom location for a path-based table: expected %s but got %s", b.location, loc)
	}
	return b
}

// WithProperty records a table property for the metadata commit.
func (b *TableBuilder) WithProperty(key, value string) *TableBuilder {
	b.props[key] = value
	return b
}

// Location returns the resolved warehouse-relative table location.
func (b *TableBuilder) Location() string { return b.location }

// Properties returns the staged table properties.
func (b *TableBuilder) Properties() map[string]string { return b.props }

// metadataFile is the initial metadata document committed on creation.
type metadataFile struct {
	Location   string            `json:"location"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Create stakes out the table's directory tree and commits the initial
// metadata file. The metadata file is what makes the directory classify
// as a table root rather than a namespace.
func (b *TableBuilder) Create(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}

	tablePath := b.catalog.tablePath(b.ident)
	exists, err := b.catalog.classifier.IsTableRoot(ctx, tablePath)
	if err != nil {
		return err
	}
	if exists {
		return &TableAlreadyExistsError{Table: b.ident}
	}

	if err := b.catalog.backend.MkdirAll(ctx, tablePath+"/"+MetadataDirName); err != nil {
		return fmt.Errorf("create table %s: %w", b.ident, err)
	}

	doc, err := json.Marshal(metadataFile{Location: b.location, Properties: b.props})
	if err != nil {
		return fmt.Errorf("create table %s: %w", b.ident, err)
	}

	metadataLoc := fmt.Sprintf("%s/%s/00000-%s%s",
		b.location, MetadataDirName, uuid.NewString(), MetadataFileSuffix)

	w, err := b.catalog.io.Create(ctx, metadataLoc, false)
	if err != nil {
		return fmt.Errorf("create table %s: %w", b.ident, err)
	}
	if _, err := w.Write(doc); err != nil {
		w.Close()
		return fmt.Errorf("create table %s: %w", b.ident, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("create table %s: %w", b.ident, err)
	}
	return nil
}
