// Package memory keeps every repository in process memory. It backs the
// "memory" DSN for local runs and the service tests. A Manager is both the
// repository factory and the dbx.Store: transactions are serialized and
// rolled back by restoring a snapshot taken when they began.
package memory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/follows"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/users"
)

var errNoSQL = errors.New("memory store does not run SQL")

type edge struct {
	follower, followed int64
}

type state struct {
	users      map[int64]*models.User
	nextUserID int64

	follows map[edge]struct{}

	// posts in insertion order, which is also id order
	posts      []*models.Post
	nextPostID int64

	tokens      map[string]*models.RefreshToken
	nextTokenID int64
}

func newState() *state {
	return &state{
		users:   make(map[int64]*models.User),
		follows: make(map[edge]struct{}),
		tokens:  make(map[string]*models.RefreshToken),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:       make(map[int64]*models.User, len(s.users)),
		nextUserID:  s.nextUserID,
		follows:     make(map[edge]struct{}, len(s.follows)),
		posts:       make([]*models.Post, len(s.posts)),
		nextPostID:  s.nextPostID,
		tokens:      make(map[string]*models.RefreshToken, len(s.tokens)),
		nextTokenID: s.nextTokenID,
	}
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for e := range s.follows {
		c.follows[e] = struct{}{}
	}
	for i, p := range s.posts {
		cp := *p
		c.posts[i] = &cp
	}
	for k, t := range s.tokens {
		cp := *t
		c.tokens[k] = &cp
	}
	return c
}

// handle is the DBTX given to repositories. It only records whether the
// caller already runs inside WithTx; its SQL methods always fail.
type handle struct {
	inTx bool
}

func (handle) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (handle) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

// QueryRowContext goes through noSQLDB because only database/sql can build a
// *sql.Row that carries an error; its Scan then returns errNoSQL.
func (handle) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return noSQLDB.QueryRowContext(ctx, query, args...)
}

// noSQLDB never connects.
var noSQLDB = sql.OpenDB(noSQLConnector{})

type noSQLConnector struct{}

func (noSQLConnector) Connect(context.Context) (driver.Conn, error) { return nil, errNoSQL }
func (noSQLConnector) Driver() driver.Driver                       { return noSQLDriver{} }

type noSQLDriver struct{}

func (noSQLDriver) Open(string) (driver.Conn, error) { return nil, errNoSQL }

// Manager owns the data. mu is held for a single operation outside a
// transaction and for the whole of WithTx; operations inside WithTx run
// under the lock their transaction already holds.
type Manager struct {
	mu sync.Mutex
	st *state
}

func NewManager() *Manager {
	return &Manager{st: newState()}
}

func (m *Manager) Conn() dbx.DBTX { return handle{} }

func (m *Manager) PingContext(ctx context.Context) error { return ctx.Err() }

// WithTx runs fn with exclusive access. On error or panic every change fn
// made is discarded; panics are rethrown.
func (m *Manager) WithTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	defer func() {
		if p := recover(); p != nil {
			m.st = snapshot
			panic(p)
		}
		if err != nil {
			m.st = snapshot
		}
	}()

	return fn(ctx, handle{inTx: true})
}

// RunMigrations is a no-op; the memory store has no schema.
func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(db dbx.DBTX) users.Repository {
	return &userRepo{m: m, inTx: inTx(db)}
}

func (m *Manager) Posts(db dbx.DBTX) posts.Repository {
	return &postRepo{m: m, inTx: inTx(db)}
}

func (m *Manager) Follows(db dbx.DBTX) follows.Repository {
	return &followRepo{m: m, inTx: inTx(db)}
}

func (m *Manager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &tokenRepo{m: m, inTx: inTx(db)}
}

func inTx(db dbx.DBTX) bool {
	h, ok := db.(handle)
	return ok && h.inTx
}

// run executes fn against the current state, taking the lock unless the
// caller is inside a transaction.
func (m *Manager) run(ctx context.Context, inTx bool, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !inTx {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return fn(m.st)
}
