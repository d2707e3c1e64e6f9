package model

import (
	"fmt"

	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/pkg/db"
	"github.com/thep200/github-top-crawler/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo is one repository snapshot keyed by name. A later write for the
// same name supersedes the earlier one; older snapshots are not kept.
type Repo struct {
	Model
	Name     string `json:"name" gorm:"column:name;type:varchar(255);primaryKey"`
	Owner    string `json:"owner" gorm:"column:owner;type:varchar(255);not null"`
	Stars    int    `json:"stars" gorm:"column:stars;default:0"`
	Watchers int    `json:"watchers" gorm:"column:watchers;default:0"`
	Forks    int    `json:"forks" gorm:"column:forks;default:0"`
	Language string `json:"language" gorm:"column:language;type:varchar(255)"`
	Updated  string `json:"updated" gorm:"column:updated;type:varchar(32);not null"`
}

func NewRepo(config *cfg.Config, logger log.Logger, db *db.Mysql) (*Repo, error) {
	repo := &Repo{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return repo, nil
}

func (r *Repo) TableName() string {
	return "repos"
}

// UpsertBatchTx writes the snapshots inside an existing transaction,
// replacing any previous row with the same name.
func (r *Repo) UpsertBatchTx(tx *gorm.DB, messages []RepoMessage) error {
	if len(messages) == 0 {
		return nil
	}

	repos := make([]Repo, 0, len(messages))
	for _, msg := range messages {
		repos = append(repos, Repo{
			Name:     TruncateString(msg.Name, 250),
			Owner:    TruncateString(msg.Owner, 250),
			Stars:    msg.Stars,
			Watchers: msg.Watchers,
			Forks:    msg.Forks,
			Language: TruncateString(msg.Language, 250),
			Updated:  msg.Updated,
		})
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "stars", "watchers", "forks", "language", "updated"}),
	}).CreateInBatches(repos, 100)
	if result.Error != nil {
		return fmt.Errorf("failed to batch upsert repositories: %w", result.Error)
	}
	return nil
}

// CreateBatch writes the snapshots in their own transaction. Used by
// the kafka consumer path.
func (r *Repo) CreateBatch(messages []RepoMessage) error {
	db, err := r.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return r.UpsertBatchTx(tx, messages)
	})
}
