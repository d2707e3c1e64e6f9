package crawler

import (
	"context"
	"time"

	"github.com/thep200/github-top-crawler/internal/githubapi"
)

// API is the paged listing source the crawler pulls from. Implemented
// by githubapi.Caller; tests substitute fakes.
type API interface {
	// SearchRepositories returns one page of repositories in the
	// source's ranking order (stars descending).
	SearchRepositories(ctx context.Context, page, perPage int) ([]githubapi.RepoItem, error)

	// ListCommits returns one page of a repository's commits since the
	// given time, plus the last page number (0 when single-paged).
	ListCommits(ctx context.Context, owner, repo string, since time.Time, page int) ([]githubapi.CommitItem, int, error)
}
