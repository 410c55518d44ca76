package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/auth"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/users"
	"github.com/dmitrijs2005/microblog/internal/validation"
)

const (
	msgUsernameTaken = "please use a different username"
	msgEmailTaken    = "please use a different email address"
)

// TokenPair bundles a short-lived access token and, when the client asked to
// be remembered, a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,max=64"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken / Logout: rotate and revoke server-stored refresh tokens
// - Authenticate / Touch: resolve the caller of a request and mark them seen
type UserService struct {
	store                        dbx.Store
	repomanager                  repomanager.RepositoryManager
	credentials                  *Credentials
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          Clock
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(store dbx.Store, m repomanager.RepositoryManager, creds *Credentials, cfg *config.Config) *UserService {
	return &UserService{
		store:                        store,
		repomanager:                  m,
		credentials:                  creds,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          utcNow,
	}
}

// Register validates in, checks that username and email are free and stores
// the new user. Every rejection is a *validation.Error.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.Struct(in).OrNil(); err != nil {
		return nil, err
	}

	user := &models.User{Username: in.Username, Email: in.Email}
	if err := s.credentials.SetPassword(user, in.Password); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		verr := &validation.Error{}
		taken, err := repo.UsernameTaken(ctx, user.Username, 0)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("username", msgUsernameTaken)
		}
		taken, err = repo.EmailTaken(ctx, user.Email)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", msgEmailTaken)
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		if _, err := repo.Create(ctx, user); err != nil {
			return uniqueToValidation(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords both yield
// common.ErrorUnauthorized. A refresh token is issued only with rememberMe.
func (s *UserService) Login(ctx context.Context, username, password string, rememberMe bool) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.store.Conn()).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.credentials.CheckPassword(nil, password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.credentials.CheckPassword(user, password) {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, user.ID, rememberMe, s.store.Conn())
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired,
// unknown ones ErrorUnauthorized.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := s.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		token, err := repo.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if token.Expires.Before(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		if err := repo.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, token.UserID, true, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes refreshToken. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repomanager.RefreshTokens(s.store.Conn()).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Authenticate resolves the user behind an access token. The user must still
// exist.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return 0, err
	}
	if _, err := s.repomanager.Users(s.store.Conn()).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrorUnauthorized
		}
		return 0, fmt.Errorf("error loading user: %w", err)
	}
	return userID, nil
}

// Touch records that userID was just active.
func (s *UserService) Touch(ctx context.Context, userID int64) error {
	return s.repomanager.Users(s.store.Conn()).TouchLastSeen(ctx, userID, s.now())
}

// PurgeExpiredTokens drops refresh tokens that can no longer be redeemed.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.store.Conn()).DeleteExpired(ctx, s.now())
}

// --- helpers below ---

func (s *UserService) generateTokenPair(ctx context.Context, userID int64, withRefresh bool, db dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	pair := &TokenPair{AccessToken: access}
	if !withRefresh {
		return pair, nil
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	expires := s.now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, refresh, expires); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	pair.RefreshToken = refresh
	return pair, nil
}

// uniqueToValidation turns a unique index violation that slipped past the
// pre-checks into the same field error the pre-check would have produced.
func uniqueToValidation(err error) error {
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		return validation.New("username", msgUsernameTaken)
	case errors.Is(err, users.ErrEmailTaken):
		return validation.New("email", msgEmailTaken)
	}
	return err
}
