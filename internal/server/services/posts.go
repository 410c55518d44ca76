package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/validation"
)

type postInput struct {
	Body string `json:"body" validate:"required,max=256"`
}

// PostService publishes posts. Posts are immutable once written.
type PostService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	now         Clock
}

func NewPostService(store dbx.Store, m repomanager.RepositoryManager) *PostService {
	return &PostService{store: store, repomanager: m, now: utcNow}
}

// Create stores body, trimmed, as a new post by authorID stamped with the
// current time.
func (s *PostService) Create(ctx context.Context, authorID int64, body string) (*models.Post, error) {
	in := postInput{Body: strings.TrimSpace(body)}
	if err := validation.Struct(in).OrNil(); err != nil {
		return nil, err
	}

	author, err := s.repomanager.Users(s.store.Conn()).GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Body:      in.Body,
		Timestamp: s.now(),
		UserID:    author.ID,
	}
	if _, err := s.repomanager.Posts(s.store.Conn()).Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.Author = models.Author{ID: author.ID, Username: author.Username, Email: author.Email}
	return post, nil
}
