// Package library is the public facade over sources, catalog, pipeline, and
// cache.
//
// The Service wires the source registry, search index, sync coordinator,
// preparation pipeline, and the prepared-lesson cache into one concurrent-safe
// surface: lookups return explicit absent values instead of errors, prepared
// artifacts are cached per lesson and option set with single-flight loading,
// and refreshing or syncing a library invalidates exactly the artifacts it
// could have staled. Cache configuration can be replaced at runtime; malformed
// replacement config is rejected as a hard error before anything is torn down.
//
// Daemon and CLI layers should depend on this package only, so behavior stays
// identical across entry points.
package library
