package model

import (
	"github.com/thep200/github-top-crawler/cfg"
	"github.com/thep200/github-top-crawler/pkg/db"
	"github.com/thep200/github-top-crawler/pkg/log"
)

// DateLayout is the canonical format for the collection date carried
// by position and author-commit records.
const DateLayout = "2006-01-02"

type Model struct {
	Config *cfg.Config `gorm:"-"`
	Logger log.Logger  `gorm:"-"`
	Mysql  *db.Mysql   `gorm:"-"`
}
