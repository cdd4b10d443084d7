// Package manifest implements the HTTP client for remote lesson sources.
//
// A remote source publishes a manifest at its configured URL: a JSON object
// with a lessons list (or a bare JSON array) whose items are either inline
// lesson documents or references carrying a url to fetch. Reference URLs may
// be relative to the manifest location and come back resolved.
package manifest
