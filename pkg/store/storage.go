package store

import "context"

// Storage is the key-value persistence contract consumed by the cache.
// Implementations may be backed by anything from process memory to Redis;
// all operations take a context because backends may be remote.
type Storage interface {
	// GetItem returns the value for key, or ErrItemNotFound when absent.
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem stores value under key, overwriting any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// Clear removes every item owned by this storage.
	Clear(ctx context.Context) error
}
