// Package follows stores the directed follower graph: one row per
// (follower, followed) pair.
package follows

import (
	"context"

	"github.com/dmitrijs2005/microblog/internal/server/models"
)

type Repository interface {
	// Create adds the edge and reports whether it was new. An existing edge is
	// left untouched.
	Create(ctx context.Context, followerID, followedID int64) (bool, error)

	// Delete removes the edge and reports whether it existed.
	Delete(ctx context.Context, followerID, followedID int64) (bool, error)

	Exists(ctx context.Context, followerID, followedID int64) (bool, error)

	// Followers lists users following userID; Following lists users userID
	// follows. Both are ordered by username.
	Followers(ctx context.Context, userID int64) ([]*models.User, error)
	Following(ctx context.Context, userID int64) ([]*models.User, error)

	// Counts returns (followers, following) for userID.
	Counts(ctx context.Context, userID int64) (int64, int64, error)
}
