package posts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postCols = []string{"id", "body", "created_at", "user_id", "username", "email"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO posts \(body, created_at, user_id\)\s+VALUES \(\$1, \$2, \$3\)\s+RETURNING id`).
		WithArgs("hello", ts, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	p, err := repo.Create(context.Background(), &models.Post{Body: "hello", Timestamp: ts, UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT INTO posts`).WillReturnError(errors.New("value too long"))

	_, err := repo.Create(context.Background(), &models.Post{Body: "x"})
	assert.ErrorContains(t, err, "db error: value too long")
}

func TestFeed_QueryShapeAndScan(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM posts p JOIN users u ON u.id = p.user_id WHERE p.user_id = \$1 OR p.user_id IN \(SELECT followed_id FROM followers WHERE follower_id = \$1\) ORDER BY p.created_at DESC, p.id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(1), 3, 3).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow(int64(9), "newer", t1, int64(2), "bob", "bob@example.com").
			AddRow(int64(8), "older", t1.Add(-time.Hour), int64(1), "alice", "alice@example.com"))

	got, err := repo.Feed(context.Background(), 1, 3, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Author{ID: 2, Username: "bob", Email: "bob@example.com"}, got[0].Author)
	assert.Equal(t, int64(8), got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountFeed(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts p WHERE p.user_id = \$1 OR p.user_id IN`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))

	n, err := repo.CountFeed(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestAllAndCountAll(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM posts p JOIN users u ON u.id = p.user_id ORDER BY p.created_at DESC, p.id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows(postCols))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	got, err := repo.All(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestByAuthor(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`WHERE p.user_id = \$1 ORDER BY p.created_at DESC, p.id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(4), 3, 0).
		WillReturnRows(sqlmock.NewRows(postCols).AddRow(int64(1), "mine", time.Now(), int64(4), "dave", "d@example.com"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts WHERE user_id = \$1`).
		WithArgs(int64(4)).
		WillReturnError(errors.New("timeout"))

	got, err := repo.ByAuthor(context.Background(), 4, 3, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].Author.ID)

	_, err = repo.CountByAuthor(context.Background(), 4)
	assert.ErrorContains(t, err, "timeout")
}
