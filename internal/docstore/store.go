package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrPathMissing = errors.New("document path missing")

// Store is the boundary to the shared document tree. The tree is
// path-addressed and schema-less: every document is an opaque JSON object
// and there is no query engine, so list operations above this interface
// always fetch a whole collection and filter in memory.
type Store interface {
	// Read unmarshals the document at path into dest.
	// Returns ErrPathMissing when no document exists there.
	Read(ctx context.Context, path string, dest any) error

	// Write replaces the document at path entirely.
	Write(ctx context.Context, path string, value any) error

	// Merge patches the document at path: named top-level fields are
	// replaced, sibling fields are left untouched. Creates the document
	// when it does not exist yet.
	Merge(ctx context.Context, path string, fields map[string]any) error

	// Push appends value under collection with a generated key and
	// returns that key.
	Push(ctx context.Context, collection string, value any) (string, error)

	// Delete removes the document at path. Deleting a missing path is
	// not an error.
	Delete(ctx context.Context, path string) error

	// Children reads every direct child of collection, keyed by child id.
	// An absent collection yields an empty map, not an error.
	Children(ctx context.Context, collection string) (map[string]json.RawMessage, error)
}
