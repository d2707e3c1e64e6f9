package crawler

import (
	"context"
	"fmt"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/internal/model"
	"github.com/thep200/github-top-crawler/pkg/db"
	kafkapkg "github.com/thep200/github-top-crawler/pkg/kafka"
	"github.com/thep200/github-top-crawler/pkg/log"
	"gorm.io/gorm"
)

// MysqlSink writes the whole batch in one transaction so a failed run
// never leaves a partial batch behind. Upserts keyed on the entity
// primary keys give last-write-wins dedup across runs.
type MysqlSink struct {
	Logger log.Logger
	Mysql  *db.Mysql

	repoMd     *model.Repo
	positionMd *model.RepoPosition
	authorMd   *model.AuthorCommit
}

func NewMysqlSink(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*MysqlSink, error) {
	repoMd, _ := model.NewRepo(config, logger, mysql)
	positionMd, _ := model.NewRepoPosition(config, logger, mysql)
	authorMd, _ := model.NewAuthorCommit(config, logger, mysql)
	return &MysqlSink{
		Logger:     logger,
		Mysql:      mysql,
		repoMd:     repoMd,
		positionMd: positionMd,
		authorMd:   authorMd,
	}, nil
}

func (s *MysqlSink) SaveBatch(ctx context.Context, records *Records) error {
	gormDb, err := s.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return gormDb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repoMd.UpsertBatchTx(tx, records.Repos); err != nil {
			return err
		}
		if err := s.positionMd.UpsertBatchTx(tx, records.Positions); err != nil {
			return err
		}
		return s.authorMd.UpsertBatchTx(tx, records.AuthorCommits)
	})
}

// KafkaSink publishes the batch to one topic per entity; the consumer
// side applies the same keyed upserts, so replays stay idempotent.
type KafkaSink struct {
	Logger log.Logger

	repoProducer     *kafkapkg.Producer
	positionProducer *kafkapkg.Producer
	authorProducer   *kafkapkg.Producer
}

func NewKafkaSink(config *cfg.Config, logger log.Logger) *KafkaSink {
	return &KafkaSink{
		Logger:           logger,
		repoProducer:     kafkapkg.NewProducer(config, logger, config.Kafka.Producer.TopicRepo),
		positionProducer: kafkapkg.NewProducer(config, logger, config.Kafka.Producer.TopicPosition),
		authorProducer:   kafkapkg.NewProducer(config, logger, config.Kafka.Producer.TopicAuthorCommits),
	}
}

func (s *KafkaSink) SaveBatch(ctx context.Context, records *Records) error {
	for _, msg := range records.Repos {
		if err := s.repoProducer.Publish(ctx, "repo", msg); err != nil {
			return fmt.Errorf("failed to publish repository: %w", err)
		}
	}
	for _, msg := range records.Positions {
		if err := s.positionProducer.Publish(ctx, "position", msg); err != nil {
			return fmt.Errorf("failed to publish position: %w", err)
		}
	}
	for _, msg := range records.AuthorCommits {
		if err := s.authorProducer.Publish(ctx, "author_commits", msg); err != nil {
			return fmt.Errorf("failed to publish author commits: %w", err)
		}
	}
	return nil
}

func (s *KafkaSink) Close() error {
	var firstErr error
	for _, producer := range []*kafkapkg.Producer{s.repoProducer, s.positionProducer, s.authorProducer} {
		if err := producer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
