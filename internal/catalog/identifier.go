package catalog

import "strings"

// Namespace is an ordered sequence of path segment names. It maps 1:1
// onto a directory path under the warehouse root.
type Namespace []string

// ParseNamespace parses a dot-separated namespace string. An empty
// string is the root namespace.
func ParseNamespace(s string) Namespace {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// IsEmpty reports whether n is the root namespace.
func (n Namespace) IsEmpty() bool { return len(n) == 0 }

// String returns the dot-separated form used in messages and APIs.
func (n Namespace) String() string { return strings.Join(n, ".") }

// Path returns the slash-joined directory path relative to the warehouse
// root, without a trailing separator.
func (n Namespace) Path() string { return strings.Join(n, "/") }

// Child returns a new namespace with name appended. The receiver is not
// modified.
func (n Namespace) Child(name string) Namespace {
	child := make(Namespace, len(n)+1)
	copy(child, n)
	child[len(n)] = name
	return child
}

// TableIdentifier names a table: a namespace plus a final name segment.
type TableIdentifier struct {
	Namespace Namespace
	Name      string
}

func (t TableIdentifier) String() string {
	if t.Namespace.IsEmpty() {
		return t.Name
	}
	return t.Namespace.String() + "." + t.Name
}
