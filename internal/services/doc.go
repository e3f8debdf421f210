// Package services defines shared utilities consumed by the resolution
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, entry IDs, and component names for
//     logging.
//   - Structured error markers plus the Wrap helper that translate per-entry
//     failures into the status recorded in the state file.
//
// Use these helpers when wiring new components so failure classification
// stays uniform across the pipeline.
package services
