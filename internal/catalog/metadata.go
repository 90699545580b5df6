package catalog

import (
	"context"
)

// TableMetadata is the provider's view of a table's current state.
type TableMetadata struct {
	// Location is the table location, warehouse-relative when the
	// provider reads through the relativizing accessor.
	Location string

	// Files lists every data and metadata file the current metadata
	// references. Files may live outside the table directory, including
	// under a different root, which is why purging a table must delete
	// them individually before removing the directory.
	Files []string
}

// MetadataProvider loads the current metadata of a table at a
// warehouse-relative location. The metadata file format is the
// provider's concern, not the catalog's. A nil metadata with nil error
// means no table exists there.
type MetadataProvider interface {
	Current(ctx context.Context, tableLocation string) (*TableMetadata, error)
}

// classifierProvider is the fallback provider used when none is
// injected: it can tell whether a table exists but knows of no files
// referenced outside the table directory.
type classifierProvider struct {
	classifier *Classifier
	root       string
}

func (p *classifierProvider) Current(ctx context.Context, tableLocation string) (*TableMetadata, error) {
	isTable, err := p.classifier.IsTableRoot(ctx, p.root+tableLocation)
	if err != nil {
		return nil, err
	}
	if !isTable {
		return nil, nil
	}
	return &TableMetadata{Location: tableLocation}, nil
}
