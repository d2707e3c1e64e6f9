package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/internal/model"
	"github.com/thep200/github-top-crawler/pkg/db"
	"github.com/thep200/github-top-crawler/pkg/kafka"
	"github.com/thep200/github-top-crawler/pkg/log"
)

const (
	batchSize    = 100
	batchTimeout = 5 * time.Second
)

func main() {
	consumerType := flag.String("type", "", "Type of consumer to run (repo, position, author_commits)")
	flag.Parse()

	if *consumerType == "" {
		fmt.Println("Please specify a consumer type: -type=[repo|position|author_commits]")
		os.Exit(1)
	}

	loader, err := cfg.NewViperLoader()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewZlLogger(config.Log.Level, config.Log.Pretty)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mysql, err := db.NewMysql(config)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer mysql.Close()

	repoMd, _ := model.NewRepo(config, logger, mysql)
	positionMd, _ := model.NewRepoPosition(config, logger, mysql)
	authorMd, _ := model.NewAuthorCommit(config, logger, mysql)
	if err := mysql.Migrate(repoMd, positionMd, authorMd); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	switch *consumerType {
	case "repo":
		startBatchedConsumer(ctx, config, logger, config.Kafka.Producer.TopicRepo,
			"repo", "repo-consumer-group", repoMd.CreateBatch)
	case "position":
		startBatchedConsumer(ctx, config, logger, config.Kafka.Producer.TopicPosition,
			"position", "position-consumer-group", positionMd.CreateBatch)
	case "author_commits":
		startBatchedConsumer(ctx, config, logger, config.Kafka.Producer.TopicAuthorCommits,
			"author_commits", "author-commits-consumer-group", authorMd.CreateBatch)
	default:
		logger.Error(ctx, "Unknown consumer type: %s", *consumerType)
		os.Exit(1)
	}

	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
}

// startBatchedConsumer reads one topic and folds messages into batched
// database writes: a batch is flushed when it is full or when the flush
// timer fires, and once more on shutdown.
func startBatchedConsumer[T any](ctx context.Context, config *cfg.Config, logger log.Logger,
	topic, key, groupID string, save func([]T) error) {

	consumer := kafka.NewConsumer(config, logger, topic, groupID)
	messages := make(chan T, batchSize*2)

	go processBatches(ctx, logger, key, messages, save)

	consumer.RegisterHandler(key, func(data []byte) error {
		var msg T
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal %s message: %w", key, err)
		}
		select {
		case messages <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Consumer for %s error: %v", topic, err)
		}
	}()

	logger.Info(ctx, "Consumer for topic %s started successfully", topic)
}

func processBatches[T any](ctx context.Context, logger log.Logger, key string,
	messages <-chan T, save func([]T) error) {

	var batch []T
	timer := time.NewTimer(batchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := save(batch); err != nil {
			logger.Error(ctx, "Failed to save batch of %d %s messages: %v", len(batch), key, err)
		} else {
			logger.Info(ctx, "Saved batch of %d %s messages", len(batch), key)
		}
		batch = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case msg := <-messages:
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				flush()
				timer.Reset(batchTimeout)
			}
		case <-timer.C:
			flush()
			timer.Reset(batchTimeout)
		}
	}
}
