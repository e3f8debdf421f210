// Package workflow runs one pass over the recommendation feed: classify each
// entry, resolve metadata, search and rank catalog candidates, and hand the
// winners to the download queue. Outcomes are written to the state store so
// later runs skip entries that already reached a terminal status.
package workflow
