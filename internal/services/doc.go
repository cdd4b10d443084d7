// Package services defines shared utilities consumed across the library
// service components.
//
// Key responsibilities:
//   - Context helpers that stamp lesson IDs, source IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs transient vs external) uniform across
//     the registry, sync coordinator, cache, and pipeline.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability, retries) stays consistent.
package services
