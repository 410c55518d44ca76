package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/memory"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
)

// Backend is an opened store together with the repositories bound to it.
type Backend struct {
	Store dbx.Store
	Repos repomanager.RepositoryManager
	db    *sql.DB
}

// sqlOpen is a test seam for sql.Open.
var sqlOpen = sql.Open

// OpenBackend connects to the store named by cfg.DatabaseDSN: the memory
// store for "memory", PostgreSQL through the pgx driver otherwise.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg.UseMemoryStore() {
		m := memory.NewManager()
		return &Backend{Store: m, Repos: m}, nil
	}

	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return &Backend{
		Store: dbx.NewSQLStore(db, nil),
		Repos: repomanager.NewPostgresRepositoryManager(),
		db:    db,
	}, nil
}

// Migrate brings the schema up to date.
func (b *Backend) Migrate(ctx context.Context) error {
	if err := b.Repos.RunMigrations(ctx, b.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
