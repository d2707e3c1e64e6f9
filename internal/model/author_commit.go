package model

import (
	"fmt"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/pkg/db"
	"github.com/thep200/github-top-crawler/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuthorCommit is one (date, repo, author) daily commit count. Last
// write wins per key.
type AuthorCommit struct {
	Model
	Date       string `json:"date" gorm:"column:date;type:date;primaryKey"`
	Repo       string `json:"repo" gorm:"column:repo;type:varchar(255);primaryKey"`
	Author     string `json:"author" gorm:"column:author;type:varchar(255);primaryKey"`
	CommitsNum int    `json:"commits_num" gorm:"column:commits_num;not null;default:0"`
}

func NewAuthorCommit(config *cfg.Config, logger log.Logger, db *db.Mysql) (*AuthorCommit, error) {
	authorCommit := &AuthorCommit{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return authorCommit, nil
}

func (a *AuthorCommit) TableName() string {
	return "repo_author_commits"
}

func (a *AuthorCommit) UpsertBatchTx(tx *gorm.DB, messages []AuthorCommitsMessage) error {
	if len(messages) == 0 {
		return nil
	}

	counts := make([]AuthorCommit, 0, len(messages))
	for _, msg := range messages {
		counts = append(counts, AuthorCommit{
			Date:       msg.Date,
			Repo:       TruncateString(msg.Repo, 250),
			Author:     TruncateString(msg.Author, 250),
			CommitsNum: msg.CommitsNum,
		})
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "repo"}, {Name: "author"}},
		DoUpdates: clause.AssignmentColumns([]string{"commits_num"}),
	}).CreateInBatches(counts, 100)
	if result.Error != nil {
		return fmt.Errorf("failed to batch upsert author commit counts: %w", result.Error)
	}
	return nil
}

func (a *AuthorCommit) CreateBatch(messages []AuthorCommitsMessage) error {
	db, err := a.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return a.UpsertBatchTx(tx, messages)
	})
}
