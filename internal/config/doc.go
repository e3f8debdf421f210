// Package config loads, normalizes, and validates perlentaucher configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, OMDB_API_KEY and NTFY_TOPIC. The ranking weights and
// similarity floors live in the [scoring] section so they can be tuned
// without a rebuild.
package config
