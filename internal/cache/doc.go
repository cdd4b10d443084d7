// Package cache provides the TTL and LRU bounded cache engine behind lesson
// and prepared-artifact lookups.
//
// Engine is generic over the cached value type. Reads treat entries past
// their TTL as absent, a periodic janitor prunes them, and GetOrLoad
// collapses concurrent loads of the same key into a single flight whose
// result (or failure) every waiter shares. An optional SQLite-backed store
// makes entries survive restarts: writes go through on Set and surviving
// entries are hydrated on construction, discarding anything already expired.
package cache
