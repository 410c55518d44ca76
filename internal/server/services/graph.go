package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/validation"
)

// GraphService maintains who follows whom. Edges are directed; following
// yourself is refused.
type GraphService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
}

func NewGraphService(store dbx.Store, m repomanager.RepositoryManager) *GraphService {
	return &GraphService{store: store, repomanager: m}
}

// Follow makes actorID follow targetUsername. Following twice is a no-op.
func (s *GraphService) Follow(ctx context.Context, actorID int64, targetUsername string) error {
	target, err := s.target(ctx, actorID, targetUsername, "you cannot follow yourself")
	if err != nil {
		return err
	}
	if _, err := s.repomanager.Follows(s.store.Conn()).Create(ctx, actorID, target.ID); err != nil {
		return fmt.Errorf("error following %s: %w", targetUsername, err)
	}
	return nil
}

// Unfollow removes the edge if it is there.
func (s *GraphService) Unfollow(ctx context.Context, actorID int64, targetUsername string) error {
	target, err := s.target(ctx, actorID, targetUsername, "you cannot unfollow yourself")
	if err != nil {
		return err
	}
	if _, err := s.repomanager.Follows(s.store.Conn()).Delete(ctx, actorID, target.ID); err != nil {
		return fmt.Errorf("error unfollowing %s: %w", targetUsername, err)
	}
	return nil
}

func (s *GraphService) IsFollowing(ctx context.Context, actorID, targetID int64) (bool, error) {
	return s.repomanager.Follows(s.store.Conn()).Exists(ctx, actorID, targetID)
}

// Followers lists who follows userID, ordered by username.
func (s *GraphService) Followers(ctx context.Context, userID int64) ([]*models.User, error) {
	return s.repomanager.Follows(s.store.Conn()).Followers(ctx, userID)
}

// Following lists who userID follows, ordered by username.
func (s *GraphService) Following(ctx context.Context, userID int64) ([]*models.User, error) {
	return s.repomanager.Follows(s.store.Conn()).Following(ctx, userID)
}

// Counts returns (followers, following) for userID.
func (s *GraphService) Counts(ctx context.Context, userID int64) (int64, int64, error) {
	return s.repomanager.Follows(s.store.Conn()).Counts(ctx, userID)
}

func (s *GraphService) target(ctx context.Context, actorID int64, username, selfMsg string) (*models.User, error) {
	target, err := s.repomanager.Users(s.store.Conn()).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == actorID {
		return nil, validation.New("username", selfMsg)
	}
	return target, nil
}
