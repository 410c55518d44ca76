package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

const userColumns = `id, username, email, password_hash, about_me, avatar_key, last_seen, created_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password_hash, about_me)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, last_seen, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.AboutMe).Scan(&user.ID, &user.LastSeen, &user.CreatedAt)

	if err != nil {
		return nil, mapUniqueErr(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM users WHERE username = $1 AND id <> $2
		 )`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, username, aboutMe string) error {
	query :=
		`UPDATE users SET username = $2, about_me = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, username, aboutMe)
	if err != nil {
		return mapUniqueErr(err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) UpdateAvatarKey(ctx context.Context, id int64, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) TouchLastSeen(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AboutMe, &u.AvatarKey, &u.LastSeen, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func mapUniqueErr(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case "ix_users_username":
			return ErrUsernameTaken
		case "ix_users_email":
			return ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", common.ErrorAlreadyExists)
	}
	return fmt.Errorf("db error: %w", err)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
