// Package omdb is a minimal Open Movie Database client used as the fallback
// metadata provider when TMDB has no match or is not configured.
package omdb
