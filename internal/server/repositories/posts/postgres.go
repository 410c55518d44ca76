package posts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

const (
	selectPosts = `SELECT p.id, p.body, p.created_at, p.user_id, u.username, u.email
		 FROM posts p JOIN users u ON u.id = p.user_id
		 `
	orderAndPage = `
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $%d OFFSET $%d
		 `

	// own posts plus posts of followed users; the OR keeps each post once
	feedFilter = `WHERE p.user_id = $1
		    OR p.user_id IN (SELECT followed_id FROM followers WHERE follower_id = $1)`
)

// PostgresRepository stores posts over dbx.DBTX and joins each row with its
// author.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts post with the timestamp the caller set and fills in its ID.
func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (body, created_at, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	if err := r.db.QueryRowContext(ctx, query, post.Body, post.Timestamp, post.UserID).Scan(&post.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) Feed(ctx context.Context, userID int64, limit, offset int) ([]*models.Post, error) {
	query := selectPosts + feedFilter + fmt.Sprintf(orderAndPage, 2, 3)
	return r.list(ctx, query, userID, limit, offset)
}

func (r *PostgresRepository) CountFeed(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM posts p ` + feedFilter
	return r.count(ctx, query, userID)
}

func (r *PostgresRepository) All(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := selectPosts + fmt.Sprintf(orderAndPage, 1, 2)
	return r.list(ctx, query, limit, offset)
}

func (r *PostgresRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM posts`)
}

func (r *PostgresRepository) ByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]*models.Post, error) {
	query := selectPosts + `WHERE p.user_id = $1` + fmt.Sprintf(orderAndPage, 2, 3)
	return r.list(ctx, query, authorID, limit, offset)
}

func (r *PostgresRepository) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM posts WHERE user_id = $1`, authorID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		p := &models.Post{}
		if err := rows.Scan(&p.ID, &p.Body, &p.Timestamp, &p.UserID, &p.Author.Username, &p.Author.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Author.ID = p.UserID
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
