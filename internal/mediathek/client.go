package mediathek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"perlentaucher/internal/logging"
	"perlentaucher/internal/services"
	"perlentaucher/internal/textutil"
)

// Candidate is one catalog record. Missing fields decode to zero values.
type Candidate struct {
	Title       string
	Topic       string
	Description string
	Channel     string
	SizeBytes   int64
	VideoURL    string
}

type queryField struct {
	Fields []string `json:"fields"`
	Query  string   `json:"query"`
}

type request struct {
	Queries   []queryField `json:"queries,omitempty"`
	Query     string       `json:"query,omitempty"`
	SortBy    string       `json:"sortBy"`
	SortOrder string       `json:"sortOrder"`
	Future    bool         `json:"future"`
	Offset    int          `json:"offset"`
	Size      int          `json:"size"`
}

type rawResult struct {
	Title       string   `json:"title"`
	Topic       string   `json:"topic"`
	Description string   `json:"description"`
	Channel     string   `json:"channel"`
	Size        *float64 `json:"size"`
	URLVideo    string   `json:"url_video"`
}

type response struct {
	Err    any `json:"err"`
	Result *struct {
		Results   []rawResult `json:"results"`
		QueryInfo *struct {
			TotalResults int `json:"totalResults"`
			ResultCount  int `json:"resultCount"`
		} `json:"queryInfo"`
	} `json:"result"`
}

// Searcher is the catalog capability the workflow depends on.
type Searcher interface {
	Search(ctx context.Context, title string) ([]Candidate, error)
	SearchSeries(ctx context.Context, seriesTitle string) ([]Candidate, error)
}

// Client queries the MediathekViewWeb API.
type Client struct {
	apiURL           string
	httpClient       *http.Client
	resultSize       int
	seriesResultSize int
	logger           *slog.Logger
}

var _ Searcher = (*Client)(nil)

// Options configures a Client.
type Options struct {
	APIURL           string
	Timeout          time.Duration
	ResultSize       int
	SeriesResultSize int
	HTTPClient       *http.Client
}

// NewClient builds a catalog client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ResultSize <= 0 {
		opts.ResultSize = 50
	}
	if opts.SeriesResultSize <= 0 {
		opts.SeriesResultSize = 500
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		apiURL:           strings.TrimSpace(opts.APIURL),
		httpClient:       &http.Client{Transport: httpClient.Transport, Timeout: opts.Timeout},
		resultSize:       opts.ResultSize,
		seriesResultSize: opts.SeriesResultSize,
		logger:           logging.NewComponentLogger(logger, "mediathek"),
	}
}

func (c *Client) movieRequests(query string) []request {
	base := func() request {
		return request{SortBy: "size", SortOrder: "desc", Future: false, Offset: 0, Size: c.resultSize}
	}
	byTitle := base()
	byTitle.Queries = []queryField{{Fields: []string{"title"}, Query: query}}
	byTitleTopic := base()
	byTitleTopic.Queries = []queryField{{Fields: []string{"title", "topic"}, Query: query}}
	plain := base()
	plain.Query = query
	return []request{byTitle, byTitleTopic, plain}
}

// Search tries a title-only query, then title and topic, then an
// unrestricted query, and returns the results of the first variant that
// yields any. A failing variant falls through to the next one. The error is
// non-nil only when every variant failed; an empty result set is not an error.
// The query text is title after search normalization.
func (c *Client) Search(ctx context.Context, title string) ([]Candidate, error) {
	title = textutil.NormalizeSearchTitle(title)
	var lastErr error
	failures := 0
	variants := c.movieRequests(title)
	for i, req := range variants {
		candidates, err := c.post(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, services.Wrap(services.ErrCancelled, "mediathek", "search", title, ctx.Err())
			}
			failures++
			lastErr = err
			c.logger.Debug("search variant failed, trying next",
				logging.Int("variant", i+1),
				logging.String("query", title),
				logging.Error(err),
			)
			continue
		}
		if len(candidates) > 0 {
			c.logger.Info("catalog results",
				logging.String("query", title),
				logging.Int("variant", i+1),
				logging.Int("results", len(candidates)),
			)
			return candidates, nil
		}
	}
	if failures == len(variants) {
		return nil, services.Wrap(services.ErrNetwork, "mediathek", "search", title, lastErr)
	}
	c.logger.Info("catalog has no results", logging.String("query", title))
	return nil, nil
}

// SearchSeries issues one wide title-and-topic query for the normalized
// series title and keeps results whose title or topic contains seriesTitle
// or its normalized form (case-insensitive).
func (c *Client) SearchSeries(ctx context.Context, seriesTitle string) ([]Candidate, error) {
	query := textutil.NormalizeSearchTitle(seriesTitle)
	req := request{
		Queries:   []queryField{{Fields: []string{"title", "topic"}, Query: query}},
		SortBy:    "size",
		SortOrder: "desc",
		Size:      c.seriesResultSize,
	}
	candidates, err := c.post(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrCancelled, "mediathek", "series search", seriesTitle, ctx.Err())
		}
		return nil, services.Wrap(services.ErrNetwork, "mediathek", "series search", seriesTitle, err)
	}
	needles := []string{strings.ToLower(seriesTitle), strings.ToLower(query)}
	filtered := candidates[:0]
	for _, candidate := range candidates {
		if containsAnyFold(candidate.Title, needles) || containsAnyFold(candidate.Topic, needles) {
			filtered = append(filtered, candidate)
		}
	}
	c.logger.Info("series catalog results",
		logging.String("query", seriesTitle),
		logging.Int("results", len(candidates)),
		logging.Int("matching", len(filtered)),
	)
	return filtered, nil
}

func (c *Client) post(ctx context.Context, payload request) ([]Candidate, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "perlentaucher")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if decoded.Result == nil {
		if decoded.Err != nil {
			return nil, fmt.Errorf("catalog error: %v", decoded.Err)
		}
		return nil, errors.New("catalog response without result")
	}
	if info := decoded.Result.QueryInfo; info != nil {
		c.logger.Debug("catalog query info",
			logging.Int("total_results", info.TotalResults),
			logging.Int("result_count", info.ResultCount),
		)
	}
	candidates := make([]Candidate, 0, len(decoded.Result.Results))
	for _, r := range decoded.Result.Results {
		candidate := Candidate{
			Title:       r.Title,
			Topic:       r.Topic,
			Description: r.Description,
			Channel:     r.Channel,
			VideoURL:    strings.TrimSpace(r.URLVideo),
		}
		if r.Size != nil && *r.Size > 0 {
			candidate.SizeBytes = int64(*r.Size)
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func containsAnyFold(text string, needles []string) bool {
	text = strings.ToLower(text)
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}
