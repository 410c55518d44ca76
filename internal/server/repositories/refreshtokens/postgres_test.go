package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/microblog/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	findQ   = `(?s)^SELECT\s+id,\s*user_id,\s*token,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	deleteQ = `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(insertQ).
		WithArgs(int64(1), "tok123", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), 1, "tok123", expires); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs(int64(1), "tok123", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), 1, "tok123", time.Now())
	if err == nil || !regexp.MustCompile(`error performing sql request: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(10 * time.Minute)
	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
		AddRow(int64(3), int64(1), "tok123", expires, created)

	mock.ExpectQuery(findQ).
		WithArgs("tok123").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 3 || got.UserID != 1 || got.Token != "tok123" || !got.Expires.Equal(expires) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFind_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("tok123").
		WillReturnError(errors.New("db err"))

	_, err := repo.Find(context.Background(), "tok123")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).
		WithArgs("tok123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).
		WithArgs("tok123").
		WillReturnError(errors.New("db err"))

	if err := repo.Delete(context.Background(), "tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := repo.Delete(context.Background(), "tok123")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<\s*\$1$`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("want 4 rows, got %d", n)
	}
}
