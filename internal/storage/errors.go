package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrNotSupported is returned for operations a backend cannot provide.
var ErrNotSupported = errors.New("storage: operation not supported")

// NotFoundError indicates that nothing exists at a location.
type NotFoundError struct {
	Location string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("storage: %s not found: %v", e.Location, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// PermissionError indicates the backend denied access to a location.
type PermissionError struct {
	Location string
	Err      error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("storage: access to %s denied: %v", e.Location, e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// BulkDeleteError reports how many deletions in a bulk batch failed.
type BulkDeleteError struct {
	Failed int
	Err    error
}

func (e *BulkDeleteError) Error() string {
	return fmt.Sprintf("storage: %d deletions failed: %v", e.Failed, e.Err)
}

func (e *BulkDeleteError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err indicates a missing location.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// IsPermission reports whether err belongs to the permission-denied
// class. The class covers typed permission errors from the backends plus,
// when substr is non-empty, any error whose message contains substr. The
// substring match exists for backends whose access-control failures only
// surface as opaque messages.
func IsPermission(err error, substr string) bool {
	var pe *PermissionError
	if errors.As(err, &pe) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	return substr != "" && err != nil && strings.Contains(err.Error(), substr)
}
