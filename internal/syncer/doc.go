// Package syncer refreshes remote lesson sources. Each sync fetches a
// source's manifest, validates and migrates every lesson (fetching referenced
// documents with bounded concurrency), and replaces the source's lesson set
// atomically only when the manifest itself was fetched and decoded. A full
// sync fans out one goroutine per enabled remote source, bounds each with its
// own deadline, and always returns one result per attempted source instead of
// failing globally.
package syncer
