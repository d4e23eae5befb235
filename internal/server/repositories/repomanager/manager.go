package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/server/repositories/entries"
	"github.com/dmitrijs2005/habits/internal/server/repositories/habits"
	"github.com/dmitrijs2005/habits/internal/server/repositories/habittags"
	"github.com/dmitrijs2005/habits/internal/server/repositories/tags"
	"github.com/dmitrijs2005/habits/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Habits(db dbx.DBTX) habits.Repository
	HabitTags(db dbx.DBTX) habittags.Repository
	Tags(db dbx.DBTX) tags.Repository
	Entries(db dbx.DBTX) entries.Repository
}
