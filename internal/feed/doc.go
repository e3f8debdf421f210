// Package feed reads the recommendation feed and adapts its items into plain
// Entry values. Identity, tags and publication time are resolved once here so
// downstream code never touches gofeed types.
package feed
