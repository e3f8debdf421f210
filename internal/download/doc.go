// Package download turns resolved catalog candidates into files on disk.
//
// Naming builds library-friendly paths ("Title (Year) [tmdbid-N].mp4" for
// movies, "Title (Year)/Title (Year) - S01E02 [tmdbid-N].mp4" for series).
// Fetcher streams a payload chunk by chunk, reporting Progress and
// honouring cancellation at every chunk boundary; partial files never
// survive a failure. Orchestrator decides what to fetch, skips targets that
// already exist and commits state records. Queue runs independent downloads
// on a bounded conc pool and hands out cancellable Task handles.
package download
