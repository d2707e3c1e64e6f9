package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thep200/github-top-crawler/internal/githubapi"
)

// fakeAPI serves a fixed ranked repository listing and per-repository
// commit pages, standing in for the GitHub API.
type fakeAPI struct {
	mu          sync.Mutex
	repos       []githubapi.RepoItem
	commits     map[string][][]githubapi.CommitItem
	searchErrs  map[int]error
	commitErrs  map[string]error
	searchCalls int
	commitCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		commits:    make(map[string][][]githubapi.CommitItem),
		searchErrs: make(map[int]error),
		commitErrs: make(map[string]error),
	}
}

func (f *fakeAPI) SearchRepositories(ctx context.Context, page, perPage int) ([]githubapi.RepoItem, error) {
	f.mu.Lock()
	f.searchCalls++
	err := f.searchErrs[page]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := (page - 1) * perPage
	if start >= len(f.repos) {
		return nil, nil
	}
	end := start + perPage
	if end > len(f.repos) {
		end = len(f.repos)
	}
	return f.repos[start:end], nil
}

func (f *fakeAPI) ListCommits(ctx context.Context, owner, repo string, since time.Time, page int) ([]githubapi.CommitItem, int, error) {
	key := owner + "/" + repo
	f.mu.Lock()
	f.commitCalls++
	err := f.commitErrs[key]
	f.mu.Unlock()
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	pages := f.commits[key]
	if len(pages) == 0 || page > len(pages) {
		return nil, 0, nil
	}
	last := 0
	if len(pages) > 1 {
		last = len(pages)
	}
	return pages[page-1], last, nil
}

// fakeSink records every batch handed to it.
type fakeSink struct {
	mu      sync.Mutex
	batches []*Records
	err     error
}

func (s *fakeSink) SaveBatch(ctx context.Context, records *Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, records)
	return nil
}

func makeRepo(rank int) githubapi.RepoItem {
	return githubapi.RepoItem{
		Id:              int64(rank),
		Name:            fmt.Sprintf("repo%d", rank),
		FullName:        fmt.Sprintf("owner%d/repo%d", rank, rank),
		Owner:           githubapi.Owner{Login: fmt.Sprintf("owner%d", rank)},
		StargazersCount: 100000 - rank,
		WatchersCount:   100000 - rank,
		ForksCount:      1000 - rank,
		Language:        "Go",
		UpdatedAt:       "2024-01-02T03:04:05Z",
	}
}

func makeRepos(count int) []githubapi.RepoItem {
	repos := make([]githubapi.RepoItem, count)
	for i := range repos {
		repos[i] = makeRepo(i + 1)
	}
	return repos
}

func commitBy(authorId int64) githubapi.CommitItem {
	return githubapi.CommitItem{
		SHA:    fmt.Sprintf("sha-%d-%d", authorId, time.Now().UnixNano()),
		Author: &githubapi.CommitAuthor{Id: authorId},
	}
}

func commitByEmail(email string) githubapi.CommitItem {
	return githubapi.CommitItem{
		SHA: fmt.Sprintf("sha-%s", email),
		Commit: githubapi.CommitDetail{
			Author: githubapi.CommitPerson{Email: email},
		},
	}
}
