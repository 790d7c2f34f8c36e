// Package store abstracts the document database the booking data
// lives in. Documents are flat field sets addressed by hierarchical
// slash-separated paths: a collection name, a document id, and
// optionally a nested collection and id below it, e.g.
// "slots/2025-03-10" or "slots/2025-03-10/details/09:00 AM_2025-03-10".
package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a targeted document does not exist.
// Reads treat absence as a valid empty state at the caller's
// discretion; targeted updates treat it as fatal.
var ErrNotFound = errors.New("document not found")

// Fields is the field set of a stored document
type Fields map[string]interface{}

// Document pairs a document id (the last path segment) with its fields
type Document struct {
	ID     string
	Fields Fields
}

// Store is the document-store client surface the service depends on.
// Implementations must make WithTransaction atomic: either every
// write inside fn is applied or none is.
type Store interface {
	// Get returns the fields of the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (Fields, error)

	// Set writes fields at path. With merge, existing fields not named
	// are kept and the document is created if absent; without merge the
	// document is replaced wholesale.
	Set(ctx context.Context, path string, fields Fields, merge bool) error

	// Update merges fields into an existing document and fails with
	// ErrNotFound if it does not exist.
	Update(ctx context.Context, path string, fields Fields) error

	// DeleteField removes a single field. Removing a field that is
	// absent, or from a document that is absent, is a no-op.
	DeleteField(ctx context.Context, path, field string) error

	// Delete removes the document at path. Deleting an absent document
	// is a no-op.
	Delete(ctx context.Context, path string) error

	// List returns every document directly under a collection path.
	List(ctx context.Context, collectionPath string) ([]Document, error)

	// WithTransaction runs fn atomically. The context passed to fn must
	// be used for every store call made inside it.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Join composes a document path from its segments
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// ParentPath returns the collection path a document path belongs to
func ParentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// BasePath returns the last segment of a path, the document id
func BasePath(path string) string {
	idx := strings.LastIndex(path, "/")
	return path[idx+1:]
}

// IsNotFound reports whether err means the document was absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
