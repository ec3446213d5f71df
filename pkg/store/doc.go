// Package store provides the persistent cache behind the variantkit client.
//
// The cache owns a single Snapshot covering app configuration, campaign
// definitions, content, identity (user and session), and per-user variant
// assignments. Every mutation is written through to a pluggable Storage
// backend as one versioned JSON blob; the cache never write-backs lazily,
// so a crash can never lose an acknowledged mutation.
//
// Storage is the consumed contract, not an implementation detail: any
// key-value store exposing GetItem/SetItem/RemoveItem/Clear can back the
// cache. The package ships two adapters: MemoryStorage for tests and
// ephemeral use, and RedisStorage over github.com/redis/go-redis.
//
// # Identity rotation
//
// Changing the user ID rotates the session ID and invalidates the transient
// content cache, but preserves variant assignments; only Reset (logout or
// explicit cache clear) drops assignments. This keeps the at-most-one
// assignment decision per (user, campaign) per cache epoch invariant intact
// across identity updates.
package store
