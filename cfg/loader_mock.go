package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (yl *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "github-top-crawler",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "github_top_crawler",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// Kafka
		Kafka: Kafka{
			Brokers: []string{"127.0.0.1:9092"},
			Producer: KafkaProducer{
				TopicRepo:          "github.repo",
				TopicPosition:      "github.repo.position",
				TopicAuthorCommits: "github.repo.author_commits",
			},
		},

		// GithubApi
		GithubApi: GithubApi{
			AccessToken:           "test-token",
			ApiUrl:                "https://api.github.com",
			MaxConcurrentRequests: 5,
			RequestsPerSecond:     5,
			WorkerCount:           5,
			TopRepoCount:          100,
			PageSize:              100,
			CommitsDaysSpan:       1,
			MaxRetries:            5,
			GateTimeoutSec:        0,
		},

		// Log
		Log: Log{
			Level:  "info",
			Pretty: false,
		},
	}, nil
}
