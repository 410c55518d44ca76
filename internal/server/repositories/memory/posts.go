package memory

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

type postRepo struct {
	m    *Manager
	inTx bool
}

func (r *postRepo) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		if _, ok := st.users[post.UserID]; !ok {
			return common.ErrorNotFound
		}
		if utf8.RuneCountInString(post.Body) > common.PostMaxLen {
			return errValueTooLong
		}
		st.nextPostID++
		post.ID = st.nextPostID
		cp := *post
		cp.Author = models.Author{}
		st.posts = append(st.posts, &cp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *postRepo) Feed(ctx context.Context, userID int64, limit, offset int) ([]*models.Post, error) {
	return r.page(ctx, feedFilter(userID), limit, offset)
}

func (r *postRepo) CountFeed(ctx context.Context, userID int64) (int64, error) {
	return r.count(ctx, feedFilter(userID))
}

func (r *postRepo) All(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.page(ctx, nil, limit, offset)
}

func (r *postRepo) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, nil)
}

func (r *postRepo) ByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]*models.Post, error) {
	return r.page(ctx, authorFilter(authorID), limit, offset)
}

func (r *postRepo) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	return r.count(ctx, authorFilter(authorID))
}

type postFilter func(st *state, p *models.Post) bool

func feedFilter(userID int64) postFilter {
	return func(st *state, p *models.Post) bool {
		if p.UserID == userID {
			return true
		}
		_, ok := st.follows[edge{userID, p.UserID}]
		return ok
	}
}

func authorFilter(authorID int64) postFilter {
	return func(_ *state, p *models.Post) bool { return p.UserID == authorID }
}

func (r *postRepo) page(ctx context.Context, keep postFilter, limit, offset int) ([]*models.Post, error) {
	out := make([]*models.Post, 0)
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		matched := make([]*models.Post, 0)
		for _, p := range st.posts {
			if keep == nil || keep(st, p) {
				matched = append(matched, p)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			if !a.Timestamp.Equal(b.Timestamp) {
				return a.Timestamp.After(b.Timestamp)
			}
			return a.ID > b.ID
		})
		if offset < 0 || offset >= len(matched) {
			return nil
		}
		end := len(matched)
		if limit >= 0 && offset+limit < end {
			end = offset + limit
		}
		for _, p := range matched[offset:end] {
			cp := *p
			if u, ok := st.users[p.UserID]; ok {
				cp.Author = models.Author{ID: u.ID, Username: u.Username, Email: u.Email}
			}
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postRepo) count(ctx context.Context, keep postFilter) (int64, error) {
	var n int64
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		for _, p := range st.posts {
			if keep == nil || keep(st, p) {
				n++
			}
		}
		return nil
	})
	return n, err
}
