// Package githubapi provides the caller used for every request to the
// GitHub API: repository search and per-repository commit listings.
// All requests pass through the shared admission gate and a bounded
// retry with exponential backoff. Remote rate-limit responses honor
// the server-provided reset time.
package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/internal/limiter"
	"github.com/thep200/github-top-crawler/pkg/log"
	"github.com/thep200/github-top-crawler/pkg/metrics"
)

const maxBackoff = 60 * time.Second

type Caller struct {
	Logger log.Logger
	Config *cfg.Config

	gate        *limiter.Gate
	client      *http.Client
	baseUrl     string
	maxRetries  int
	baseBackoff time.Duration
}

// NewCaller builds a caller owning its HTTP client for the duration of
// a run. Close releases the client's idle connections.
func NewCaller(logger log.Logger, config *cfg.Config, gate *limiter.Gate) *Caller {
	maxRetries := config.GithubApi.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Caller{
		Logger:      logger,
		Config:      config,
		gate:        gate,
		client:      &http.Client{Timeout: 30 * time.Second},
		baseUrl:     strings.TrimRight(config.GithubApi.ApiUrl, "/"),
		maxRetries:  maxRetries,
		baseBackoff: time.Second,
	}
}

func (c *Caller) Close() {
	c.client.CloseIdleConnections()
}

// SearchRepositories fetches one page of repositories sorted by stars
// in descending order.
func (c *Caller) SearchRepositories(ctx context.Context, page, perPage int) ([]RepoItem, error) {
	query := url.Values{}
	query.Set("q", "stars:>1")
	query.Set("sort", "stars")
	query.Set("order", "desc")
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))

	var resp SearchResponse
	if _, err := c.getJSON(ctx, "search/repositories", "search", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ListCommits fetches one page of a repository's commits since the
// given time. The second return value is the last page number parsed
// from the Link header, or 0 when the listing fits in one page.
// A missing or empty repository yields an empty page, not an error.
func (c *Caller) ListCommits(ctx context.Context, owner, repo string, since time.Time, page int) ([]CommitItem, int, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/commits", owner, repo)
	query := url.Values{}
	query.Set("since", since.UTC().Format(time.RFC3339))
	query.Set("per_page", "100")
	query.Set("page", strconv.Itoa(page))

	var commits []CommitItem
	header, err := c.getJSON(ctx, endpoint, "commits", query, &commits)
	if err != nil {
		var apiErr *APIError
		// 404: repository gone or inaccessible. 409: empty repository.
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusConflict) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return commits, lastPage(header.Get("Link")), nil
}

// getJSON performs one logical request with bounded retries. Each
// attempt acquires and releases the gate around the network call, so a
// request waiting out a rate-limit reset holds no concurrency slot.
func (c *Caller) getJSON(ctx context.Context, endpoint, metricName string, query url.Values, out interface{}) (http.Header, error) {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		header, err := c.attempt(ctx, endpoint, metricName, query, out)
		if err == nil {
			return header, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= c.maxRetries {
			break
		}

		metrics.RetriesTotal.WithLabelValues(errorClass(err)).Inc()

		// Jitter of +-20% around the current backoff.
		wait := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		var rateErr *RateLimitError
		if errors.As(err, &rateErr) && !rateErr.Reset.IsZero() {
			if until := time.Until(rateErr.Reset) + time.Second; until > wait {
				wait = until
			}
			c.Logger.Warn(ctx, "Rate limit hit on %s, waiting %v until reset", endpoint, wait.Round(time.Second))
		} else {
			c.Logger.Warn(ctx, "Request to %s failed (attempt %d/%d): %v", endpoint, attempt, c.maxRetries, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	metrics.RetryExhaustedTotal.WithLabelValues(errorClass(lastErr)).Inc()
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, c.maxRetries, lastErr)
}

func (c *Caller) attempt(ctx context.Context, endpoint, metricName string, query url.Values, out interface{}) (http.Header, error) {
	if err := c.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.gate.Release()

	fullUrl := fmt.Sprintf("%s/%s?%s", c.baseUrl, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "Bearer "+c.Config.GithubApi.AccessToken)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(metricName, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	metrics.RequestDuration.WithLabelValues(metricName).Observe(time.Since(start).Seconds())
	metrics.RequestsTotal.WithLabelValues(metricName, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests) &&
			resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, &RateLimitError{
				Endpoint: endpoint,
				Reset:    parseReset(resp.Header.Get("X-RateLimit-Reset")),
			}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrMalformedResponse, endpoint, err)
	}
	return resp.Header, nil
}

func parseReset(value string) time.Time {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(seconds, 0)
}

// lastPage extracts the page number of the rel="last" entry from a
// Link header, returning 0 when there is none.
func lastPage(link string) int {
	for _, part := range strings.Split(link, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if !strings.Contains(section[1], `rel="last"`) {
			continue
		}
		raw := strings.Trim(strings.TrimSpace(section[0]), "<>")
		parsed, err := url.Parse(raw)
		if err != nil {
			continue
		}
		page, err := strconv.Atoi(parsed.Query().Get("page"))
		if err != nil {
			continue
		}
		return page
	}
	return 0
}
