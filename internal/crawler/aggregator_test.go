package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-top-crawler/internal/githubapi"
)

func TestAggregatorSumsAcrossPages(t *testing.T) {
	api := newFakeAPI()
	api.commits["owner1/repo1"] = [][]githubapi.CommitItem{
		{commitBy(1), commitBy(1), commitBy(2), commitBy(2)},
		{commitBy(1)},
	}
	aggregator := NewAggregator(newTestLogger(t), api, 4, 1)

	counts, err := aggregator.AuthorCommits(context.Background(), "owner1", "repo1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1": 3, "2": 2}, counts)
}

func TestAggregatorSinglePage(t *testing.T) {
	api := newFakeAPI()
	api.commits["owner1/repo1"] = [][]githubapi.CommitItem{
		{commitBy(7), commitBy(7), commitBy(9)},
	}
	aggregator := NewAggregator(newTestLogger(t), api, 4, 1)

	counts, err := aggregator.AuthorCommits(context.Background(), "owner1", "repo1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7": 2, "9": 1}, counts)
	assert.Equal(t, 1, api.commitCalls)
}

func TestAggregatorEmptyRepository(t *testing.T) {
	api := newFakeAPI()
	aggregator := NewAggregator(newTestLogger(t), api, 4, 1)

	counts, err := aggregator.AuthorCommits(context.Background(), "owner1", "repo1")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestAggregatorFallsBackToEmailKey(t *testing.T) {
	api := newFakeAPI()
	api.commits["owner1/repo1"] = [][]githubapi.CommitItem{
		{commitBy(1), commitByEmail("dev@example.com"), commitByEmail("dev@example.com")},
	}
	aggregator := NewAggregator(newTestLogger(t), api, 4, 1)

	counts, err := aggregator.AuthorCommits(context.Background(), "owner1", "repo1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1": 1, "dev@example.com": 2}, counts)
}

func TestAggregatorPageFailureFailsRepository(t *testing.T) {
	api := newFakeAPI()
	api.commits["owner1/repo1"] = [][]githubapi.CommitItem{{commitBy(1)}}
	api.commitErrs["owner1/repo1"] = assert.AnError
	aggregator := NewAggregator(newTestLogger(t), api, 4, 1)

	counts, err := aggregator.AuthorCommits(context.Background(), "owner1", "repo1")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, counts)
}

func TestAggregatorWindowStart(t *testing.T) {
	var gotSince time.Time
	api := &sinceCapturingAPI{since: &gotSince}
	aggregator := NewAggregator(newTestLogger(t), api, 4, 3)
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	aggregator.now = func() time.Time { return fixed }

	_, err := aggregator.AuthorCommits(context.Background(), "owner1", "repo1")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(-72*time.Hour), gotSince)
}

type sinceCapturingAPI struct {
	since *time.Time
}

func (a *sinceCapturingAPI) SearchRepositories(ctx context.Context, page, perPage int) ([]githubapi.RepoItem, error) {
	return nil, nil
}

func (a *sinceCapturingAPI) ListCommits(ctx context.Context, owner, repo string, since time.Time, page int) ([]githubapi.CommitItem, int, error) {
	*a.since = since
	return nil, 0, nil
}
