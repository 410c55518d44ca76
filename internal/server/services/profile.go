package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/validation"
	"github.com/google/uuid"
)

// DefaultAvatarSize is used when a caller asks for a non-positive size.
const DefaultAvatarSize = 80

type editProfileInput struct {
	Username string `json:"username" validate:"required,max=64"`
	AboutMe  string `json:"about_me" validate:"max=140"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ProfileView is what one user sees on another user's page.
type ProfileView struct {
	User        *models.User `json:"user"`
	Followers   int64        `json:"followers"`
	Following   int64        `json:"following"`
	IsFollowing bool         `json:"is_following"`
	IsSelf      bool         `json:"is_self"`
	AvatarURL   string       `json:"avatar_url"`
}

// ProfileService reads and edits user profiles. storage may be nil, which
// disables uploaded avatars.
type ProfileService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	credentials *Credentials
	storage     ObjectStorage
}

func NewProfileService(store dbx.Store, m repomanager.RepositoryManager, creds *Credentials, storage ObjectStorage) *ProfileService {
	return &ProfileService{store: store, repomanager: m, credentials: creds, storage: storage}
}

func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.store.Conn()).GetByUsername(ctx, username)
}

func (s *ProfileService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.store.Conn()).GetByID(ctx, userID)
}

// View assembles the profile page of username as seen by viewerID. Email
// is only shown to its owner.
func (s *ProfileService) View(ctx context.Context, viewerID int64, username string, avatarSize int) (*ProfileView, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	follows := s.repomanager.Follows(s.store.Conn())
	followers, following, err := follows.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	isFollowing, err := follows.Exists(ctx, viewerID, user.ID)
	if err != nil {
		return nil, err
	}
	avatar, err := s.AvatarURL(ctx, user, avatarSize)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{
		User:        user,
		Followers:   followers,
		Following:   following,
		IsFollowing: isFollowing,
		IsSelf:      viewerID == user.ID,
		AvatarURL:   avatar,
	}
	if !view.IsSelf {
		cp := *user
		cp.Email = ""
		view.User = &cp
	}
	return view, nil
}

// EditProfile changes username and about text together. A new username must
// not belong to anybody else; keeping the current one always passes.
func (s *ProfileService) EditProfile(ctx context.Context, userID int64, username, aboutMe string) (*models.User, error) {
	in := editProfileInput{Username: strings.TrimSpace(username), AboutMe: strings.TrimSpace(aboutMe)}
	if err := validation.Struct(in).OrNil(); err != nil {
		return nil, err
	}

	var updated *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if in.Username != user.Username {
			taken, err := repo.UsernameTaken(ctx, in.Username, userID)
			if err != nil {
				return err
			}
			if taken {
				return validation.New("username", msgUsernameTaken)
			}
		}

		if err := repo.UpdateProfile(ctx, userID, in.Username, in.AboutMe); err != nil {
			return uniqueToValidation(err)
		}
		user.Username = in.Username
		user.AboutMe = in.AboutMe
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type resetPasswordInput struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword sets a new password for username without the current one.
// Only the admin tool calls it.
func (s *ProfileService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if err := validation.Struct(resetPasswordInput{NewPassword: newPassword}).OrNil(); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.store.Conn())
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.credentials.SetPassword(user, newPassword); err != nil {
		return err
	}
	return repo.UpdatePassword(ctx, user.ID, user.PasswordHash)
}

// ChangePassword requires the current password before setting a new one.
func (s *ProfileService) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	in := changePasswordInput{CurrentPassword: current, NewPassword: newPassword}
	if err := validation.Struct(in).OrNil(); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.store.Conn())
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.credentials.CheckPassword(user, current) {
		return validation.New("current_password", "invalid password")
	}
	if err := s.credentials.SetPassword(user, newPassword); err != nil {
		return err
	}
	return repo.UpdatePassword(ctx, userID, user.PasswordHash)
}

// AvatarURL links the uploaded avatar when there is one and storage is on,
// otherwise the Gravatar identicon for the user's email.
func (s *ProfileService) AvatarURL(ctx context.Context, user *models.User, size int) (string, error) {
	if user.AvatarKey != "" && s.storage != nil {
		url, err := s.storage.PresignGet(ctx, user.AvatarKey)
		if err != nil {
			return "", fmt.Errorf("error presigning avatar: %w", err)
		}
		return url, nil
	}
	return GravatarURL(user.Email, size), nil
}

// AvatarUploadURL reserves a fresh object key for userID's avatar and
// returns it with a presigned PUT URL.
func (s *ProfileService) AvatarUploadURL(ctx context.Context, userID int64) (string, string, error) {
	if s.storage == nil {
		return "", "", common.ErrorStorageDisabled
	}

	key := fmt.Sprintf("avatars/%d/%s", userID, uuid.New())
	url, err := s.storage.PresignPut(ctx, key)
	if err != nil {
		return "", "", fmt.Errorf("error presigning upload: %w", err)
	}
	if err := s.repomanager.Users(s.store.Conn()).UpdateAvatarKey(ctx, userID, key); err != nil {
		return "", "", err
	}
	return key, url, nil
}

func GravatarURL(email string, size int) string {
	if size < 1 {
		size = DefaultAvatarSize
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon&s=%d", hex.EncodeToString(sum[:]), size)
}
