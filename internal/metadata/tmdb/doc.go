// Package tmdb is a small client for The Movie Database search endpoints.
package tmdb
