package cfg

import (
	"fmt"
	"time"
)

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	Kafka struct {
		Brokers  []string
		Producer KafkaProducer
	}

	KafkaProducer struct {
		TopicRepo          string
		TopicPosition      string
		TopicAuthorCommits string
	}

	GithubApi struct {
		AccessToken           string
		ApiUrl                string
		MaxConcurrentRequests int
		RequestsPerSecond     float64
		WorkerCount           int
		TopRepoCount          int
		PageSize              int
		CommitsDaysSpan       int
		MaxRetries            int
		GateTimeoutSec        int
	}

	Log struct {
		Level  string
		Pretty bool
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	Kafka     Kafka
	GithubApi GithubApi
	Log       Log
}

// GateTimeout returns the configured gate acquisition timeout.
// Zero means wait without bound.
func (c *Config) GateTimeout() time.Duration {
	return time.Duration(c.GithubApi.GateTimeoutSec) * time.Second
}

// Validate checks the option surface consumed by the crawler core.
func (c *Config) Validate() error {
	api := c.GithubApi
	if api.AccessToken == "" {
		return fmt.Errorf("github_api.access_token is required")
	}
	if api.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("github_api.max_concurrent_requests must be positive, got %d", api.MaxConcurrentRequests)
	}
	if api.RequestsPerSecond <= 0 {
		return fmt.Errorf("github_api.requests_per_second must be positive, got %v", api.RequestsPerSecond)
	}
	if api.WorkerCount <= 0 {
		return fmt.Errorf("github_api.worker_count must be positive, got %d", api.WorkerCount)
	}
	if api.TopRepoCount < 0 {
		return fmt.Errorf("github_api.top_repo_count must not be negative, got %d", api.TopRepoCount)
	}
	if api.PageSize < 1 || api.PageSize > 100 {
		return fmt.Errorf("github_api.page_size must be in 1..100, got %d", api.PageSize)
	}
	if api.GateTimeoutSec < 0 {
		return fmt.Errorf("github_api.gate_timeout_sec must not be negative, got %d", api.GateTimeoutSec)
	}
	return nil
}
