package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/follows"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Follows(db dbx.DBTX) follows.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
