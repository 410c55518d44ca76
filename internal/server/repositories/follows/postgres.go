package follows

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

// PostgresRepository reads and writes the followers table over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the edge. ON CONFLICT keeps a repeated follow from failing;
// the affected row count tells whether the edge is new.
func (r *PostgresRepository) Create(ctx context.Context, followerID, followedID int64) (bool, error) {
	query :=
		`INSERT INTO followers (follower_id, followed_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// Delete removes the edge and reports whether a row went away.
func (r *PostgresRepository) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `DELETE FROM followers WHERE follower_id = $1 AND followed_id = $2`

	res, err := r.db.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM followers WHERE follower_id = $1 AND followed_id = $2
		 )`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, followerID, followedID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Followers(ctx context.Context, userID int64) ([]*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.about_me, u.last_seen, u.created_at
		 FROM followers f JOIN users u ON u.id = f.follower_id
		 WHERE f.followed_id = $1
		 ORDER BY u.username
		 `
	return r.listUsers(ctx, query, userID)
}

func (r *PostgresRepository) Following(ctx context.Context, userID int64) ([]*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.about_me, u.last_seen, u.created_at
		 FROM followers f JOIN users u ON u.id = f.followed_id
		 WHERE f.follower_id = $1
		 ORDER BY u.username
		 `
	return r.listUsers(ctx, query, userID)
}

// Counts reads both directions in one round trip.
func (r *PostgresRepository) Counts(ctx context.Context, userID int64) (int64, int64, error) {
	query :=
		`SELECT
		   (SELECT COUNT(*) FROM followers WHERE followed_id = $1),
		   (SELECT COUNT(*) FROM followers WHERE follower_id = $1)
		 `

	var followers, following int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&followers, &following); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return followers, following, nil
}

func (r *PostgresRepository) listUsers(ctx context.Context, query string, userID int64) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.AboutMe, &u.LastSeen, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
