package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLoader(t *testing.T) {
	loader, err := NewMockLoader()
	require.NoError(t, err)

	config, err := loader.Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.NoError(t, config.Validate())
	assert.Equal(t, "github-top-crawler", config.App.Name)
	assert.Equal(t, 5, config.GithubApi.MaxConcurrentRequests)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		loader, _ := NewMockLoader()
		config, _ := loader.Load()
		return config
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "missing access token",
			mutate:  func(c *Config) { c.GithubApi.AccessToken = "" },
			wantErr: "access_token",
		},
		{
			name:    "zero max concurrent requests",
			mutate:  func(c *Config) { c.GithubApi.MaxConcurrentRequests = 0 },
			wantErr: "max_concurrent_requests",
		},
		{
			name:    "negative requests per second",
			mutate:  func(c *Config) { c.GithubApi.RequestsPerSecond = -1 },
			wantErr: "requests_per_second",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.GithubApi.WorkerCount = 0 },
			wantErr: "worker_count",
		},
		{
			name:    "negative top repo count",
			mutate:  func(c *Config) { c.GithubApi.TopRepoCount = -5 },
			wantErr: "top_repo_count",
		},
		{
			name:    "zero top repo count is allowed",
			mutate:  func(c *Config) { c.GithubApi.TopRepoCount = 0 },
			wantErr: "",
		},
		{
			name:    "page size above github cap",
			mutate:  func(c *Config) { c.GithubApi.PageSize = 101 },
			wantErr: "page_size",
		},
		{
			name:    "negative gate timeout",
			mutate:  func(c *Config) { c.GithubApi.GateTimeoutSec = -1 },
			wantErr: "gate_timeout_sec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGateTimeout(t *testing.T) {
	loader, _ := NewMockLoader()
	config, _ := loader.Load()

	assert.Equal(t, time.Duration(0), config.GateTimeout())

	config.GithubApi.GateTimeoutSec = 30
	assert.Equal(t, 30*time.Second, config.GateTimeout())
}
