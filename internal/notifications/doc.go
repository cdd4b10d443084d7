// Package notifications delivers library events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover sync outcomes and errors so the sync
// coordinator can emit consistent, user-friendly messages without duplicating
// HTTP glue. A configurable dedup window suppresses repeats of an identical
// message, keeping a flapping source from flooding a topic.
//
// Extend this package if you need alternative transports; all coordinator
// code depends only on the simple Service interface.
package notifications
