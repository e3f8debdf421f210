package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"perlentaucher/internal/logging"
)

// ContentType is the coarse classification reported by a metadata provider.
type ContentType string

const (
	ContentUnknown ContentType = "unknown"
	ContentMovie   ContentType = "movie"
	ContentTV      ContentType = "tv"
)

// Metadata is the outcome of a lookup. Year is zero when unknown and
// ProviderID is empty when no provider matched.
type Metadata struct {
	Year        int
	ProviderID  string
	ContentType ContentType
}

// HasProviderID reports whether a provider matched.
func (m Metadata) HasProviderID() bool {
	return strings.TrimSpace(m.ProviderID) != ""
}

// Kind selects which catalog section a provider searches.
type Kind int

const (
	KindMovie Kind = iota
	KindTV
)

func (k Kind) String() string {
	if k == KindTV {
		return "tv"
	}
	return "movie"
}

// Match is a single provider hit.
type Match struct {
	// ID is the provider-native identifier, e.g. "603" or "tt0133093".
	ID   string
	Year int
}

// Provider looks up a title in one external database.
type Provider interface {
	Name() string
	// Tag is the provider id prefix used in file names ("tmdbid", "imdbid").
	Tag() string
	Lookup(ctx context.Context, title string, year int, kind Kind) (Match, bool, error)
}

// Lookup resolves a title to Metadata.
type Lookup interface {
	Resolve(ctx context.Context, title string, year int) Metadata
}

// Resolver queries providers in order, movies before series, and returns the
// first match. Provider errors are logged and never escalated.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver builds a Resolver over the given providers; nil entries are skipped.
func NewResolver(logger *slog.Logger, providers ...Provider) *Resolver {
	r := &Resolver{logger: logging.NewComponentLogger(logger, "metadata")}
	for _, p := range providers {
		if p != nil {
			r.providers = append(r.providers, p)
		}
	}
	return r
}

// Enabled reports whether any provider is configured.
func (r *Resolver) Enabled() bool {
	return r != nil && len(r.providers) > 0
}

// Resolve returns metadata for title. Without a match the input year is
// kept and the content type is unknown.
func (r *Resolver) Resolve(ctx context.Context, title string, year int) Metadata {
	result := Metadata{Year: year, ContentType: ContentUnknown}
	if r == nil {
		return result
	}
	for _, provider := range r.providers {
		for _, kind := range []Kind{KindMovie, KindTV} {
			match, ok, err := provider.Lookup(ctx, title, year, kind)
			if err != nil {
				r.logger.Debug("metadata lookup failed",
					logging.String("provider", provider.Name()),
					logging.String("kind", kind.String()),
					logging.String("title", title),
					logging.Error(err),
				)
				continue
			}
			if !ok || strings.TrimSpace(match.ID) == "" {
				continue
			}
			if match.Year > 0 {
				result.Year = match.Year
			}
			result.ProviderID = FormatProviderID(provider.Tag(), match.ID)
			if kind == KindTV {
				result.ContentType = ContentTV
			} else {
				result.ContentType = ContentMovie
			}
			r.logger.Debug("metadata match",
				logging.String("provider", provider.Name()),
				logging.String("title", title),
				logging.String("provider_id", result.ProviderID),
				logging.String("content_type", string(result.ContentType)),
			)
			return result
		}
	}
	return result
}

// FormatProviderID renders the bracketed id embedded in file names, e.g. "[tmdbid-603]".
func FormatProviderID(tag, id string) string {
	return fmt.Sprintf("[%s-%s]", tag, strings.TrimSpace(id))
}
