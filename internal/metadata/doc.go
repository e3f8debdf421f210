// Package metadata resolves titles against external film databases.
//
// Providers (TMDB first, OMDb as fallback) are optional. When none is
// configured or none matches, Resolve keeps the headline year and reports
// ContentUnknown so the series and ranking tiers that depend on metadata are
// skipped. Transient provider failures are retried a bounded number of times.
package metadata
