// The pipeline ties discovery and aggregation together: enumerate the
// top repositories once, aggregate each repository's author commit
// counts concurrently through the shared pool and gate, and hand the
// resulting record sets to the sink as a single batch. A run either
// writes the full batch or writes nothing.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/internal/githubapi"
	"github.com/thep200/github-top-crawler/internal/model"
	"github.com/thep200/github-top-crawler/internal/worker"
	"github.com/thep200/github-top-crawler/pkg/log"
	"github.com/thep200/github-top-crawler/pkg/metrics"
)

// Records is the output of one pipeline run, one slice per entity.
// Within a batch every primary key appears at most once.
type Records struct {
	Repos         []model.RepoMessage
	Positions     []model.PositionMessage
	AuthorCommits []model.AuthorCommitsMessage
}

// Sink persists one batch. Implementations own the upsert/dedup
// semantics per primary key.
type Sink interface {
	SaveBatch(ctx context.Context, records *Records) error
}

type Pipeline struct {
	Logger     log.Logger
	Config     *cfg.Config
	enumerator *Enumerator
	aggregator *Aggregator
	sink       Sink
	workers    int
	now        func() time.Time
}

func NewPipeline(logger log.Logger, config *cfg.Config, api API, sink Sink) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	workers := config.GithubApi.WorkerCount
	return &Pipeline{
		Logger:     logger,
		Config:     config,
		enumerator: NewEnumerator(logger, api, config.GithubApi.PageSize, workers),
		aggregator: NewAggregator(logger, api, workers, config.GithubApi.CommitsDaysSpan),
		sink:       sink,
		workers:    workers,
		now:        time.Now,
	}, nil
}

// Run executes one collection for the current date. Discovery failure
// is fatal. A repository whose aggregation fails is dropped from all
// three record sets; the run only fails when no repository survives.
// On cancellation nothing is persisted.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.now()
	target := p.Config.GithubApi.TopRepoCount

	repos, err := p.enumerator.TopRepositories(ctx, target)
	if err != nil {
		return &PipelineError{Stage: "discovery", Err: err}
	}
	p.Logger.Info(ctx, "Discovered %d repositories (target %d)", len(repos), target)

	results := worker.Execute(ctx, p.workers, func(ctx context.Context, item githubapi.RepoItem) (map[string]int, error) {
		return p.aggregator.AuthorCommits(ctx, item.Owner.Login, item.Name)
	}, repos)

	if err := ctx.Err(); err != nil {
		return err
	}

	records := p.buildRecords(ctx, repos, results)
	if len(repos) > 0 && len(records.Repos) == 0 {
		return &PipelineError{
			Stage: "aggregation",
			Err:   fmt.Errorf("all %d repositories failed", len(repos)),
		}
	}

	if err := p.sink.SaveBatch(ctx, records); err != nil {
		return &PipelineError{Stage: "persist", Err: err}
	}

	metrics.ReposCollectedTotal.Add(float64(len(records.Repos)))
	p.Logger.Info(ctx, "Run finished in %v: %d repositories, %d positions, %d author commit counts",
		p.now().Sub(start).Round(time.Millisecond), len(records.Repos), len(records.Positions), len(records.AuthorCommits))
	return nil
}

func (p *Pipeline) buildRecords(ctx context.Context, repos []githubapi.RepoItem, results []worker.Result[map[string]int]) *Records {
	now := p.now().UTC()
	date := now.Format(model.DateLayout)
	updated := now.Format(time.RFC3339)

	records := &Records{}
	seen := make(map[string]struct{}, len(repos))
	for i, repo := range repos {
		if results[i].Err != nil {
			p.Logger.Warn(ctx, "Dropping %s/%s from the batch: %v", repo.Owner.Login, repo.Name, results[i].Err)
			continue
		}
		// Rank is the position in the discovery listing, 1-based.
		// Repository names are the snapshot key; a second repository
		// with the same name cannot be reconciled within one batch.
		if _, dup := seen[repo.Name]; dup {
			p.Logger.Warn(ctx, "Dropping duplicate repository name %q (owner %s) from the batch", repo.Name, repo.Owner.Login)
			continue
		}
		seen[repo.Name] = struct{}{}

		fullName := repo.Owner.Login + "/" + repo.Name
		records.Repos = append(records.Repos, model.RepoMessage{
			Name:     repo.Name,
			Owner:    repo.Owner.Login,
			Stars:    repo.StargazersCount,
			Watchers: repo.WatchersCount,
			Forks:    repo.ForksCount,
			Language: repo.Language,
			Updated:  updated,
		})
		records.Positions = append(records.Positions, model.PositionMessage{
			Date:     date,
			Repo:     fullName,
			Position: i + 1,
		})
		for author, count := range results[i].Value {
			records.AuthorCommits = append(records.AuthorCommits, model.AuthorCommitsMessage{
				Date:       date,
				Repo:       fullName,
				Author:     author,
				CommitsNum: count,
			})
		}
	}
	return records
}
