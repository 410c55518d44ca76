package services

import (
	"context"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/validation"
)

// FeedService reads paged post listings, newest first. Each call runs one
// COUNT and at most one page query.
type FeedService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
}

func NewFeedService(store dbx.Store, m repomanager.RepositoryManager) *FeedService {
	return &FeedService{store: store, repomanager: m}
}

type PostPage = models.Page[*models.Post]

// FeedFor lists posts by userID and by everyone userID follows.
func (s *FeedService) FeedFor(ctx context.Context, userID int64, page, perPage int) (*PostPage, error) {
	repo := s.repomanager.Posts(s.store.Conn())
	return paginate(ctx, page, perPage,
		func(ctx context.Context) (int64, error) { return repo.CountFeed(ctx, userID) },
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return repo.Feed(ctx, userID, limit, offset)
		})
}

// GlobalFeed lists every post.
func (s *FeedService) GlobalFeed(ctx context.Context, page, perPage int) (*PostPage, error) {
	repo := s.repomanager.Posts(s.store.Conn())
	return paginate(ctx, page, perPage, repo.CountAll, repo.All)
}

// UserPosts lists the posts of username.
func (s *FeedService) UserPosts(ctx context.Context, username string, page, perPage int) (*PostPage, error) {
	user, err := s.repomanager.Users(s.store.Conn()).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Posts(s.store.Conn())
	return paginate(ctx, page, perPage,
		func(ctx context.Context) (int64, error) { return repo.CountByAuthor(ctx, user.ID) },
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return repo.ByAuthor(ctx, user.ID, limit, offset)
		})
}

// paginate clamps page to 1 and rejects perPage < 1. A page past the last
// one, however large its number, is returned empty without querying rows.
func paginate[T any](
	ctx context.Context,
	page, perPage int,
	count func(ctx context.Context) (int64, error),
	list func(ctx context.Context, limit, offset int) ([]T, error),
) (*models.Page[T], error) {
	if perPage < 1 {
		return nil, validation.New("per_page", "must be at least 1")
	}
	if page < 1 {
		page = 1
	}

	total, err := count(ctx)
	if err != nil {
		return nil, err
	}

	var items []T
	if int64(page) <= models.PageCount(total, perPage) {
		items, err = list(ctx, perPage, models.Offset(page, perPage))
		if err != nil {
			return nil, err
		}
	}
	return models.NewPage(items, page, perPage, total), nil
}
