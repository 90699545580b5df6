// Package location converts warehouse locations between absolute and
// warehouse-relative form. All functions are pure string transformations;
// no I/O happens here.
package location

import "strings"

// Separator is the path separator used in warehouse locations.
const Separator = "/"

// NormalizeRoot strips any trailing separators from root and appends
// exactly one, so that prefix matching against it is unambiguous.
func NormalizeRoot(root string) string {
	return strings.TrimRight(root, Separator) + Separator
}

// IsAbsolute reports whether loc is self-describing: it either carries a
// scheme prefix (e.g. "s3://bucket/...") or is an absolute filesystem path.
func IsAbsolute(loc string) bool {
	if strings.HasPrefix(loc, Separator) {
		return true
	}
	i := strings.Index(loc, "://")
	if i <= 0 {
		return false
	}
	// A scheme is non-empty and contains no separators before "://".
	return !strings.Contains(loc[:i], Separator)
}

// Absolutize resolves loc against the normalized warehouse root. Locations
// that are already absolute are returned unchanged, so the function is
// idempotent: the check is on the input's own form, never on whether it
// happens to start with root.
func Absolutize(loc, root string) string {
	if IsAbsolute(loc) {
		return loc
	}
	return root + loc
}

// Relativize strips the normalized warehouse root prefix from loc. A
// location outside the root (for example during a cross-root copy) is
// returned unchanged as an absolute value.
//
// Matching is textual: two distinct roots that share a string prefix are
// not distinguished by protocol-aware containment. This mirrors the
// persisted-layout contract and is an accepted limitation.
func Relativize(loc, root string) string {
	return strings.TrimPrefix(loc, root)
}
