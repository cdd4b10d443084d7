// Package lesson defines the core domain types shared across the library
// service: validated lesson documents, source definitions, and sync results.
//
// The JSON tags on these types are the wire contract for local lesson files
// and remote manifests alike; the schema package enforces it. Lessons are
// immutable once validated; packages that need to decorate or retain one
// take a Clone rather than aliasing the canonical value owned by the source
// registry.
package lesson
