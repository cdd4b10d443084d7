// Package catalog provides the in-memory search index over the merged lesson
// catalog. The index rebuilds itself lazily whenever the source registry
// publishes a new catalog generation, so searches never observe a partially
// updated view.
package catalog
