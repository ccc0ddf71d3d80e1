// Package github fetches pull-request data from the GitHub REST API and
// aggregates the records that satisfy the configured filters.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacoelho/webql/internal/httpclient"
	"github.com/jacoelho/webql/internal/ratelimit"
)

const (
	// DefaultHost is the public GitHub API endpoint.
	DefaultHost = "https://api.github.com"

	tokenEnv       = "GITHUB_TOKEN"
	userAgent      = "webql"
	acceptHeader   = "application/vnd.github.v3+json"
	requestTimeout = 30 * time.Second
)

// ErrMissingToken indicates no token was supplied and GITHUB_TOKEN is unset.
var ErrMissingToken = errors.New("github: token not provided")

// Client lists raw GitHub records. Implementations page through the API;
// the since cut-off bounds the look-back window.
type Client interface {
	ListPullRequests(ctx context.Context, owner, repo string, since time.Time) ([]json.RawMessage, error)
	ListIssueComments(ctx context.Context, owner, repo string, issue int64, since time.Time) ([]json.RawMessage, error)
	ListIssueEvents(ctx context.Context, owner, repo string, issue int64, since time.Time) ([]json.RawMessage, error)
}

type apiClient struct {
	host    string
	token   string
	client  *http.Client
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

// ClientOption customizes an API client.
type ClientOption func(*apiClient)

// WithRateLimit throttles requests to the given rate, 0 for unlimited.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *apiClient) {
		c.limiter = ratelimit.New(requestsPerSecond)
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *apiClient) {
		c.log = logger
	}
}

// NewClient creates a GitHub API client. An empty host selects
// DefaultHost; an empty token falls back to the GITHUB_TOKEN environment
// variable.
func NewClient(host, token string, opts ...ClientOption) (Client, error) {
	if host == "" {
		host = DefaultHost
	}
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	c := &apiClient{
		host:    strings.TrimSuffix(host, "/"),
		token:   token,
		client:  httpclient.New(requestTimeout),
		limiter: ratelimit.New(0),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *apiClient) ListPullRequests(ctx context.Context, owner, repo string, since time.Time) ([]json.RawMessage, error) {
	path := fmt.Sprintf("repos/%s/%s/pulls", owner, repo)
	items, err := c.listPages(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	kept := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		if c.after(item, "updated_at", since) {
			kept = append(kept, item)
		}
	}

	c.log.Debug().Str("owner", owner).Str("repo", repo).Int("total", len(kept)).Msg("pull requests in window")
	return kept, nil
}

func (c *apiClient) ListIssueComments(ctx context.Context, owner, repo string, issue int64, since time.Time) ([]json.RawMessage, error) {
	path := fmt.Sprintf("repos/%s/%s/issues/%d/comments", owner, repo, issue)
	params := url.Values{"since": []string{since.Format(time.RFC3339)}}
	return c.listPages(ctx, path, params)
}

func (c *apiClient) ListIssueEvents(ctx context.Context, owner, repo string, issue int64, since time.Time) ([]json.RawMessage, error) {
	path := fmt.Sprintf("repos/%s/%s/issues/%d/events", owner, repo, issue)
	items, err := c.listPages(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	kept := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		if c.after(item, "created_at", since) {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

// listPages fetches consecutive pages until an empty page or a
// non-success status ends the loop.
func (c *apiClient) listPages(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage

	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		query := url.Values{}
		for key, values := range params {
			query[key] = values
		}
		query.Set("page", strconv.Itoa(page))
		endpoint := c.host + "/" + path + "?" + query.Encode()

		c.log.Debug().Str("endpoint", endpoint).Int("page", page).Msg("create http request")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", acceptHeader)
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", path, err)
		}

		pageItems, err := c.decodePage(resp, endpoint, page)
		if err != nil {
			return nil, err
		}
		if len(pageItems) == 0 {
			return items, nil
		}
		items = append(items, pageItems...)
	}
}

func (c *apiClient) decodePage(resp *http.Response, endpoint string, page int) ([]json.RawMessage, error) {
	defer resp.Body.Close()

	c.log.Debug().Str("endpoint", endpoint).Int("page", page).Int("status", resp.StatusCode).Msg("response status code")

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode page %d of %s: %w", page, endpoint, err)
	}
	return items, nil
}

// after reports whether the record's timestamp field is strictly after
// since. Records missing the field or carrying an unparsable value are
// dropped, matching the window semantics of the API itself.
func (c *apiClient) after(raw json.RawMessage, field string, since time.Time) bool {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(raw, &record); err != nil {
		return false
	}

	value, ok := record[field]
	if !ok {
		return false
	}

	var ts time.Time
	if err := json.Unmarshal(value, &ts); err != nil {
		c.log.Debug().Str("field", field).Err(err).Msg("could not convert field to date time")
		return false
	}

	return ts.After(since)
}
