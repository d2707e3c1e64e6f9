package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/internal/limiter"
	"github.com/thep200/github-top-crawler/pkg/log"
)

func newTestCaller(t *testing.T, serverUrl string) *Caller {
	t.Helper()
	loader, err := cfg.NewMockLoader()
	require.NoError(t, err)
	config, err := loader.Load()
	require.NoError(t, err)
	config.GithubApi.ApiUrl = serverUrl
	config.GithubApi.MaxRetries = 3

	logger, err := log.NewCslLogger()
	require.NoError(t, err)

	caller := NewCaller(logger, config, limiter.NewGate(5, 1000, 0))
	caller.baseBackoff = time.Millisecond
	return caller
}

func TestSearchRepositoriesParsesItems(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{
			"total_count": 2,
			"incomplete_results": false,
			"items": [
				{"id": 1, "name": "linux", "full_name": "torvalds/linux", "owner": {"login": "torvalds"},
				 "stargazers_count": 170000, "watchers_count": 170000, "forks_count": 50000,
				 "language": "C", "updated_at": "2024-01-02T03:04:05Z"},
				{"id": 2, "name": "go", "full_name": "golang/go", "owner": {"login": "golang"},
				 "stargazers_count": 120000, "watchers_count": 120000, "forks_count": 17000,
				 "language": "Go", "updated_at": "2024-01-02T03:04:05Z"}
			]
		}`)
	}))
	defer server.Close()

	caller := newTestCaller(t, server.URL)
	defer caller.Close()

	items, err := caller.SearchRepositories(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, gotQuery, "sort=stars")
	assert.Contains(t, gotQuery, "order=desc")
	assert.Contains(t, gotQuery, "page=1")
	assert.Equal(t, "linux", items[0].Name)
	assert.Equal(t, "torvalds", items[0].Owner.Login)
	assert.Equal(t, 170000, items[0].StargazersCount)
	assert.Equal(t, "Go", items[1].Language)
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		http.Error(w, `{"message": "Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	caller := newTestCaller(t, server.URL)
	defer caller.Close()

	_, err := caller.SearchRepositories(context.Background(), 1, 100)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.True(t, apiErr.Permanent())
	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))
}

func TestTransientErrorIsRetried(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) < 3 {
			http.Error(w, "tripped over", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"total_count": 0, "incomplete_results": false, "items": []}`)
	}))
	defer server.Close()

	caller := newTestCaller(t, server.URL)
	defer caller.Close()

	items, err := caller.SearchRepositories(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestRetryExhaustion(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		http.Error(w, "still broken", http.StatusBadGateway)
	}))
	defer server.Close()

	caller := newTestCaller(t, server.URL)
	defer caller.Close()

	_, err := caller.SearchRepositories(context.Background(), 1, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestRemoteRateLimitIsRetriedAfterReset(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) == 1 {
			// Reset already in the past so the test does not sleep.
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-2*time.Second).Unix(), 10))
			http.Error(w, "rate limited", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"total_count": 0, "incomplete_results": false, "items": []}`)
	}))
	defer server.Close()

	caller := newTestCaller(t, server.URL)
	defer caller.Close()

	_, err := caller.SearchRepositories(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&attempts))
}

func TestMalformedResponseIsNotRetried(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		fmt.Fprint(w, `{"items": [`)
	}))
	defer server.Close()

	caller := newTestCaller(t, server.URL)
	defer caller.Close()

	_, err := caller.SearchRepositories(context.Background(), 1, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))
}

func TestListCommitsMissingRepoYieldsEmpty(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusConflict} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nothing here", status)
		}))

		caller := newTestCaller(t, server.URL)
		commits, last, err := caller.ListCommits(context.Background(), "ghost", "gone", time.Now(), 1)
		require.NoError(t, err, "status %d", status)
		assert.Empty(t, commits)
		assert.Zero(t, last)

		caller.Close()
		server.Close()
	}
}

func TestListCommitsParsesLinkHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link",
			`<https://api.github.com/repositories/1/commits?page=2>; rel="next", `+
				`<https://api.github.com/repositories/1/commits?page=7>; rel="last"`)
		fmt.Fprint(w, `[
			{"sha": "abc", "author": {"id": 42, "login": "alice"}, "commit": {"author": {"email": "alice@example.com"}}},
			{"sha": "def", "author": null, "commit": {"author": {"email": "bob@example.com"}}}
		]`)
	}))
	defer server.Close()

	caller := newTestCaller(t, server.URL)
	defer caller.Close()

	commits, last, err := caller.ListCommits(context.Background(), "owner", "repo", time.Now(), 1)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, 7, last)
	assert.Equal(t, "42", commits[0].AuthorKey())
	assert.Equal(t, "bob@example.com", commits[1].AuthorKey())
}

func TestLastPage(t *testing.T) {
	tests := []struct {
		name string
		link string
		want int
	}{
		{"empty header", "", 0},
		{"no last rel", `<https://x/y?page=2>; rel="next"`, 0},
		{"next and last", `<https://x/y?page=2>; rel="next", <https://x/y?page=9>; rel="last"`, 9},
		{"last only", `<https://x/y?page=3&per_page=100>; rel="last"`, 3},
		{"garbage", "not a link header", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lastPage(tt.link))
		})
	}
}

func TestGateTimeoutIsTransient(t *testing.T) {
	assert.True(t, IsTransient(limiter.ErrGateTimeout))
	assert.True(t, IsTransient(&RateLimitError{Reset: time.Now()}))
	assert.True(t, IsTransient(&APIError{StatusCode: http.StatusBadGateway}))
	assert.False(t, IsTransient(&APIError{StatusCode: http.StatusUnauthorized}))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(nil))
}
