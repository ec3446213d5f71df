package store

import "errors"

// Predefined errors for the store package.
var (
	// ErrItemNotFound indicates the storage backend has no value for a key.
	ErrItemNotFound = errors.New("storage item not found")

	// ErrKeyNotFound indicates the snapshot holds no config or content entry
	// for a key. Callers should treat this as "not configured", a normal
	// recoverable condition.
	ErrKeyNotFound = errors.New("key not found in cache snapshot")

	// ErrStorageNil indicates a cache was constructed without a storage
	// backend.
	ErrStorageNil = errors.New("storage backend is nil")

	// ErrSnapshotCorrupt indicates the persisted snapshot blob could not be
	// decoded. The cache discards such blobs and starts cold.
	ErrSnapshotCorrupt = errors.New("persisted snapshot is corrupt")
)
