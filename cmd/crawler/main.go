package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/internal/crawler"
	"github.com/thep200/github-top-crawler/internal/githubapi"
	"github.com/thep200/github-top-crawler/internal/limiter"
	"github.com/thep200/github-top-crawler/internal/model"
	"github.com/thep200/github-top-crawler/pkg/db"
	"github.com/thep200/github-top-crawler/pkg/log"
)

var (
	flagLimit    int
	flagPageSize int
	flagWorkers  int
	flagSink     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "crawler",
		Short:        "Collect the top GitHub repositories and their daily per-author commit counts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().IntVar(&flagLimit, "limit", 0, "number of top repositories to collect (overrides config)")
	rootCmd.Flags().IntVar(&flagPageSize, "page-size", 0, "search page size, at most 100 (overrides config)")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size (overrides config)")
	rootCmd.Flags().StringVar(&flagSink, "sink", "mysql", "where to write the batch: mysql or kafka")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	loader, err := cfg.NewViperLoader()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flagLimit > 0 {
		config.GithubApi.TopRepoCount = flagLimit
	}
	if flagPageSize > 0 {
		config.GithubApi.PageSize = flagPageSize
	}
	if flagWorkers > 0 {
		config.GithubApi.WorkerCount = flagWorkers
	}
	if err := config.Validate(); err != nil {
		return err
	}

	logger, err := log.NewZlLogger(config.Log.Level, config.Log.Pretty)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	gate := limiter.NewGate(
		config.GithubApi.MaxConcurrentRequests,
		config.GithubApi.RequestsPerSecond,
		config.GateTimeout(),
	)
	caller := githubapi.NewCaller(logger, config, gate)
	defer caller.Close()

	var sink crawler.Sink
	switch flagSink {
	case "mysql":
		mysql, err := db.NewMysql(config)
		if err != nil {
			return fmt.Errorf("failed to connect to mysql: %w", err)
		}
		defer mysql.Close()
		if err := mysql.Ping(); err != nil {
			return fmt.Errorf("failed to ping mysql: %w", err)
		}
		repoMd, _ := model.NewRepo(config, logger, mysql)
		positionMd, _ := model.NewRepoPosition(config, logger, mysql)
		authorMd, _ := model.NewAuthorCommit(config, logger, mysql)
		if err := mysql.Migrate(repoMd, positionMd, authorMd); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		mysqlSink, err := crawler.NewMysqlSink(config, logger, mysql)
		if err != nil {
			return fmt.Errorf("failed to build mysql sink: %w", err)
		}
		sink = mysqlSink
	case "kafka":
		kafkaSink := crawler.NewKafkaSink(config, logger)
		defer kafkaSink.Close()
		sink = kafkaSink
	default:
		return fmt.Errorf("unknown sink %q, expected mysql or kafka", flagSink)
	}

	pipeline, err := crawler.NewPipeline(logger, config, caller, sink)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Starting collection of the top %d repositories", config.GithubApi.TopRepoCount)
	if err := pipeline.Run(ctx); err != nil {
		logger.Error(ctx, "Collection failed: %v", err)
		return err
	}
	logger.Info(ctx, "Collection finished successfully")
	return nil
}
