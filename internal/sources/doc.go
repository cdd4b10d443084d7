// Package sources maintains the configured lesson libraries and the merged
// catalog built from them. Local sources load lesson files from disk during
// initialization; remote sources hold lesson sets the sync coordinator
// replaces wholesale. Lesson ID collisions across enabled sources resolve by
// source priority, then most recent update, then source ID.
package sources
