package catalog

import (
	"errors"
	"fmt"
)

// ErrNotSupported marks operations this catalog shape can never perform,
// regardless of arguments: table renames and namespace property
// mutation. Path-based catalogs have no indirection between identifier
// and location.
var ErrNotSupported = errors.New("catalog: operation not supported")

// NamespaceNotFoundError indicates that a namespace does not exist.
type NamespaceNotFoundError struct {
	Namespace Namespace
}

func (e *NamespaceNotFoundError) Error() string {
	return fmt.Sprintf("catalog: namespace does not exist: %s", e.Namespace)
}

// TableNotFoundError indicates that a table does not exist.
type TableNotFoundError struct {
	Table TableIdentifier
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("catalog: table does not exist: %s", e.Table)
}

// AlreadyExistsError indicates a creation collision.
type AlreadyExistsError struct {
	Namespace Namespace
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("catalog: namespace already exists: %s", e.Namespace)
}

// NamespaceNotEmptyError blocks non-recursive namespace deletion.
type NamespaceNotEmptyError struct {
	Namespace Namespace
}

func (e *NamespaceNotEmptyError) Error() string {
	return fmt.Sprintf("catalog: namespace %s is not empty", e.Namespace)
}
