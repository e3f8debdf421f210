package omdb

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

// Response models the OMDb title lookup payload. OMDb reports failures with
// Response "False" and a 200 status.
type Response struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	IMDbID   string `json:"imdbID"`
	Type     string `json:"Type"`
}

// Found reports whether the payload carries a match.
func (r Response) Found() bool {
	return r.Response == "True" && strings.TrimSpace(r.IMDbID) != ""
}

// StartYear parses the leading year; series report ranges like "2017–2020".
func (r Response) StartYear() int {
	year := strings.TrimSpace(r.Year)
	if len(year) < 4 {
		return 0
	}
	value, err := strconv.Atoi(year[:4])
	if err != nil {
		return 0
	}
	return value
}

// Client queries the OMDb API.
type Client struct {
	apiKey     string
	baseURL    string
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

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      metadata.DefaultRetryOptions(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) Name() string { return "omdb" }

func (c *Client) Tag() string { return "imdbid" }

// Lookup resolves title to an IMDb id via the t= exact title endpoint.
func (c *Client) Lookup(ctx context.Context, title string, year int, kind metadata.Kind) (metadata.Match, bool, error) {
	omdbType := "movie"
	if kind == metadata.KindTV {
		omdbType = "series"
	}
	resp, err := c.Title(ctx, title, year, omdbType)
	if err != nil {
		return metadata.Match{}, false, err
	}
	if !resp.Found() {
		return metadata.Match{}, false, nil
	}
	return metadata.Match{ID: strings.TrimSpace(resp.IMDbID), Year: resp.StartYear()}, true, nil
}

// Title fetches a single title of the given OMDb type ("movie" or "series").
func (c *Client) Title(ctx context.Context, title string, year int, omdbType string) (*Response, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	if omdbType != "" {
		params.Set("type", omdbType)
	}
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
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
			return nil, &metadata.StatusError{Provider: "omdb", Status: resp.StatusCode}
		}
		var payload Response
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode omdb response: %w", err)
		}
		return &payload, nil
	})
}
