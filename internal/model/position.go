package model

import (
	"fmt"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/pkg/db"
	"github.com/thep200/github-top-crawler/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepoPosition is one (date, repo) ranking row. Last write wins per
// key: re-running the pipeline for the same date replaces the rank.
type RepoPosition struct {
	Model
	Date     string `json:"date" gorm:"column:date;type:date;primaryKey"`
	Repo     string `json:"repo" gorm:"column:repo;type:varchar(255);primaryKey"`
	Position int    `json:"position" gorm:"column:position;not null"`
}

func NewRepoPosition(config *cfg.Config, logger log.Logger, db *db.Mysql) (*RepoPosition, error) {
	position := &RepoPosition{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return position, nil
}

func (p *RepoPosition) TableName() string {
	return "repo_positions"
}

func (p *RepoPosition) UpsertBatchTx(tx *gorm.DB, messages []PositionMessage) error {
	if len(messages) == 0 {
		return nil
	}

	positions := make([]RepoPosition, 0, len(messages))
	for _, msg := range messages {
		positions = append(positions, RepoPosition{
			Date:     msg.Date,
			Repo:     TruncateString(msg.Repo, 250),
			Position: msg.Position,
		})
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "repo"}},
		DoUpdates: clause.AssignmentColumns([]string{"position"}),
	}).CreateInBatches(positions, 100)
	if result.Error != nil {
		return fmt.Errorf("failed to batch upsert positions: %w", result.Error)
	}
	return nil
}

func (p *RepoPosition) CreateBatch(messages []PositionMessage) error {
	db, err := p.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return p.UpsertBatchTx(tx, messages)
	})
}
