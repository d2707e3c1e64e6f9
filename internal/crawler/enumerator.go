package crawler

import (
	"context"
	"fmt"

	"github.com/thep200/github-top-crawler/internal/githubapi"
	"github.com/thep200/github-top-crawler/internal/worker"
	"github.com/thep200/github-top-crawler/pkg/log"
)

// The search API serves at most this many results regardless of paging.
const searchResultCap = 1000

// Enumerator walks the ranked repository listing until the target
// count is collected. Search pages are addressed by index, so the
// pages needed for the target are prefetched concurrently through the
// worker pool; results are reassembled in page order, which preserves
// the source's ranking.
type Enumerator struct {
	Logger   log.Logger
	api      API
	pageSize int
	workers  int
}

func NewEnumerator(logger log.Logger, api API, pageSize, workers int) *Enumerator {
	return &Enumerator{
		Logger:   logger,
		api:      api,
		pageSize: pageSize,
		workers:  workers,
	}
}

// TopRepositories returns the first n repositories in ranking order,
// or fewer when the source is exhausted. n <= 0 returns an empty list
// without any remote call. Any page failure is fatal here: a missing
// page would leave a hole in the ranking.
func (e *Enumerator) TopRepositories(ctx context.Context, n int) ([]githubapi.RepoItem, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > searchResultCap {
		e.Logger.Warn(ctx, "Requested %d repositories but the search API caps results at %d, clamping", n, searchResultCap)
		n = searchResultCap
	}

	pageSize := e.pageSize
	if pageSize > n {
		pageSize = n
	}
	pageCount := (n + pageSize - 1) / pageSize

	pages := make([]int, pageCount)
	for i := range pages {
		pages[i] = i + 1
	}

	e.Logger.Info(ctx, "Enumerating top %d repositories across %d pages of %d", n, pageCount, pageSize)
	results := worker.Execute(ctx, e.workers, func(ctx context.Context, page int) ([]githubapi.RepoItem, error) {
		return e.api.SearchRepositories(ctx, page, pageSize)
	}, pages)

	// Reassemble in page order. Pages can drift between requests, so
	// repositories seen twice keep their first (higher) position only.
	out := make([]githubapi.RepoItem, 0, n)
	seen := make(map[string]struct{}, n)
	for i, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("failed to fetch repositories page %d: %w", pages[i], result.Err)
		}
		for _, item := range result.Value {
			if len(out) >= n {
				// Speculative overshoot is discarded.
				return out, nil
			}
			key := item.FullName
			if key == "" {
				key = item.Owner.Login + "/" + item.Name
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out, nil
}
