package models

// NamespaceResponse describes a single namespace.
type NamespaceResponse struct {
	// Namespace is the dot-joined identifier, e.g. "analytics.daily".
	Namespace string `json:"namespace"`

	// Location is the warehouse-relative location of the namespace
	// directory.
	Location string `json:"location,omitempty"`
}

// CreateNamespaceRequest is the body for namespace creation.
type CreateNamespaceRequest struct {
	// Namespace is the dot-joined identifier of the namespace to create.
	Namespace string `json:"namespace" binding:"required"`

	// Properties must be empty: path-based namespaces carry no metadata.
	Properties map[string]string `json:"properties,omitempty"`
}

// TableResponse describes a single table.
type TableResponse struct {
	// Namespace is the dot-joined namespace identifier.
	Namespace string `json:"namespace"`

	// Name is the table name.
	Name string `json:"name"`

	// Location is the warehouse-relative table location, derived from
	// the identifier.
	Location string `json:"location"`
}

// CreateTableRequest is the body for table creation.
type CreateTableRequest struct {
	// Name is the table name.
	Name string `json:"name" binding:"required"`

	// Location, when set, must equal the identifier-derived default.
	Location string `json:"location,omitempty"`

	// Properties are free-form table properties.
	Properties map[string]string `json:"properties,omitempty"`
}

// DropResponse reports the outcome of a drop operation.
type DropResponse struct {
	Dropped bool `json:"dropped"`
}
