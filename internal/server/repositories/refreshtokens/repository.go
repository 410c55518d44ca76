// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/microblog/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID that stops being valid at expires.
	Create(ctx context.Context, userID int64, token string, expires time.Time) error

	// Find looks up a refresh token by its opaque token string.
	// Returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string. Deleting a
	// non-existent token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired drops every token that expired before now and reports how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
