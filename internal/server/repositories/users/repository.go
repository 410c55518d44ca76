// Package users declares the user repository contract and its PostgreSQL
// implementation.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

// Uniqueness conflicts. Both match common.ErrorAlreadyExists.
var (
	ErrUsernameTaken = fmt.Errorf("username %w", common.ErrorAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("email %w", common.ErrorAlreadyExists)
)

type Repository interface {
	// Create inserts user and fills in its ID, LastSeen and CreatedAt.
	// Unique index violations come back as ErrUsernameTaken / ErrEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UsernameTaken reports whether a user other than excludeID owns username.
	// Pass 0 to check against everybody.
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)

	UpdateProfile(ctx context.Context, id int64, username, aboutMe string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateAvatarKey(ctx context.Context, id int64, key string) error
	TouchLastSeen(ctx context.Context, id int64, at time.Time) error
}
