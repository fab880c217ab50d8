package store

import "context"

// Store is the path-addressable document store the rest of the service talks to.
// Paths look like "groups/{groupId}/info/leaderNotes"; values are JSON-shaped
// (map[string]any, []any, string, float64, bool, nil). Concurrency discipline is
// the store's: per-path last write wins, no cross-path transactions.
type Store interface {
	// Subscribe delivers the current value at path immediately and again after
	// every change that touches the path. A nil value means nothing exists there.
	// The returned function removes the subscription; calling it twice is safe.
	Subscribe(path string, onChange func(value any), onError func(err error)) (unsubscribe func())

	// WriteMerge shallow-merges fields into the object at path, leaving sibling
	// keys untouched. A nil field value removes that key.
	WriteMerge(ctx context.Context, path string, fields map[string]any) error

	// WriteReplace overwrites the entire value at path.
	WriteReplace(ctx context.Context, path string, value any) error

	// Remove deletes the value at path. Removing an absent path is not an error.
	Remove(ctx context.Context, path string) error

	// ReadOnce returns a single point-in-time read of path, nil if absent.
	ReadOnce(ctx context.Context, path string) (any, error)

	// GenerateID allocates a new unique child key under a collection path.
	GenerateID(parentPath string) string
}
