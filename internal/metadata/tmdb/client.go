package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"perlentaucher/internal/metadata"
)

// Result represents a single TMDB search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
}

// Year returns the release (or first air) year, or zero.
func (r Result) Year() int {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

// Client provides access to the TMDB search API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	retry      metadata.RetryOptions
}

var _ metadata.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(opts metadata.RetryOptions) Option {
	return func(c *Client) {
		c.retry = opts
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      metadata.DefaultRetryOptions(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) Name() string { return "tmdb" }

func (c *Client) Tag() string { return "tmdbid" }

// Lookup returns the first search hit for title.
func (c *Client) Lookup(ctx context.Context, title string, year int, kind metadata.Kind) (metadata.Match, bool, error) {
	var (
		resp *Response
		err  error
	)
	if kind == metadata.KindTV {
		resp, err = c.SearchTV(ctx, title, year)
	} else {
		resp, err = c.SearchMovie(ctx, title, year)
	}
	if err != nil {
		return metadata.Match{}, false, err
	}
	if len(resp.Results) == 0 || resp.Results[0].ID == 0 {
		return metadata.Match{}, false, nil
	}
	first := resp.Results[0]
	return metadata.Match{ID: strconv.FormatInt(first.ID, 10), Year: first.Year()}, true, nil
}

// SearchMovie searches /search/movie, filtering by year when positive.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) (*Response, error) {
	params := url.Values{}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	return c.search(ctx, "/search/movie", query, params)
}

// SearchTV searches /search/tv, filtering by first air year when positive.
func (c *Client) SearchTV(ctx context.Context, query string, year int) (*Response, error) {
	params := url.Values{}
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	return c.search(ctx, "/search/tv", query, params)
}

func (c *Client) search(ctx context.Context, path, query string, params url.Values) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	return metadata.Do(ctx, c.retry, func() (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &metadata.StatusError{Provider: "tmdb" + path, Status: resp.StatusCode}
		}

		var payload Response
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode tmdb response: %w", err)
		}
		return &payload, nil
	})
}
