package repomanager

import (
	"context"
	"database/sql"

	"github.com/avollmer/weavebox/internal/dbx"
	"github.com/avollmer/weavebox/internal/repositories/bookmarks"
	"github.com/avollmer/weavebox/internal/repositories/history"
	"github.com/avollmer/weavebox/internal/repositories/search"
	"github.com/avollmer/weavebox/internal/repositories/urltext"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Bookmarks(db dbx.DBTX) bookmarks.Repository
	History(db dbx.DBTX) history.Repository
	URLText(db dbx.DBTX) urltext.Repository
	Search(db dbx.DBTX) search.Repository
}
