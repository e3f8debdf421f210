// Package state persists per-entry processing outcomes so repeated runs skip
// entries that already reached a terminal status.
//
// The ledger is a single JSON document:
//
//	{"entries": {"<id>": {"status": ..., "timestamp": ...}}, "last_updated": ..., "processed_entries": [...]}
//
// processed_entries is a derived copy of the entry keys kept for older
// readers. Files that only contain processed_entries are upgraded on read.
// Every read-modify-write cycle runs under an in-process mutex and an
// advisory flock on "<path>.lock", so concurrent episode commits and
// overlapping runs serialize.
package state
