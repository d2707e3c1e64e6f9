package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/github-top-crawler/internal/githubapi"
	"github.com/thep200/github-top-crawler/internal/worker"
	"github.com/thep200/github-top-crawler/pkg/log"
)

// Aggregator folds one repository's commit listing into per-author
// commit counts for the collection window.
type Aggregator struct {
	Logger   log.Logger
	api      API
	workers  int
	daysSpan int
	now      func() time.Time
}

func NewAggregator(logger log.Logger, api API, workers, daysSpan int) *Aggregator {
	if daysSpan <= 0 {
		daysSpan = 1
	}
	return &Aggregator{
		Logger:   logger,
		api:      api,
		workers:  workers,
		daysSpan: daysSpan,
		now:      time.Now,
	}
}

// AuthorCommits paginates the repository's commits since the window
// start and sums them per author. The first page must be read before
// the rest: its Link header tells how many pages exist; the remaining
// pages are independent and fetched through the pool. A repository
// with no commits (including missing or empty repositories) yields an
// empty map, not a failure.
func (a *Aggregator) AuthorCommits(ctx context.Context, owner, repo string) (map[string]int, error) {
	since := a.now().UTC().Add(-time.Duration(a.daysSpan) * 24 * time.Hour)

	first, last, err := a.api.ListCommits(ctx, owner, repo, since, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
	}

	counts := make(map[string]int)
	fold := func(commits []githubapi.CommitItem) {
		for _, commit := range commits {
			counts[commit.AuthorKey()]++
		}
	}
	fold(first)

	if last > 1 {
		pages := make([]int, last-1)
		for i := range pages {
			pages[i] = i + 2
		}
		results := worker.Execute(ctx, a.workers, func(ctx context.Context, page int) ([]githubapi.CommitItem, error) {
			commits, _, err := a.api.ListCommits(ctx, owner, repo, since, page)
			return commits, err
		}, pages)

		for i, result := range results {
			if result.Err != nil {
				return nil, fmt.Errorf("failed to list commits page %d for %s/%s: %w", pages[i], owner, repo, result.Err)
			}
			// Counts are summed across pages, so an author appearing on
			// several pages accumulates rather than being overwritten.
			fold(result.Value)
		}
	}

	return counts, nil
}
