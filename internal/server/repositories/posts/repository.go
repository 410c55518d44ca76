// Package posts stores posts and answers the feed queries. Every listing is
// ordered newest first (timestamp, then id, both descending) and is read one
// page at a time with LIMIT/OFFSET; the matching Count* call gives the total.
package posts

import (
	"context"

	"github.com/dmitrijs2005/microblog/internal/server/models"
)

type Repository interface {
	// Create inserts post and fills in its ID.
	Create(ctx context.Context, post *models.Post) (*models.Post, error)

	// Feed lists posts written by userID or by anyone userID follows.
	Feed(ctx context.Context, userID int64, limit, offset int) ([]*models.Post, error)
	CountFeed(ctx context.Context, userID int64) (int64, error)

	// All lists every post.
	All(ctx context.Context, limit, offset int) ([]*models.Post, error)
	CountAll(ctx context.Context) (int64, error)

	// ByAuthor lists the posts of one user.
	ByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]*models.Post, error)
	CountByAuthor(ctx context.Context, authorID int64) (int64, error)
}
