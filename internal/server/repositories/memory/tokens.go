package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

type tokenRepo struct {
	m    *Manager
	inTx bool
}

func (r *tokenRepo) Create(ctx context.Context, userID int64, token string, expires time.Time) error {
	return r.m.run(ctx, r.inTx, func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := st.tokens[token]; ok {
			return common.ErrorAlreadyExists
		}
		st.nextTokenID++
		st.tokens[token] = &models.RefreshToken{
			ID:        st.nextTokenID,
			UserID:    userID,
			Token:     token,
			Expires:   expires,
			CreatedAt: time.Now().UTC(),
		}
		return nil
	})
}

func (r *tokenRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		t, ok := st.tokens[token]
		if !ok {
			return common.ErrorNotFound
		}
		cp := *t
		out = &cp
		return nil
	})
	return out, err
}

func (r *tokenRepo) Delete(ctx context.Context, token string) error {
	return r.m.run(ctx, r.inTx, func(st *state) error {
		delete(st.tokens, token)
		return nil
	})
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		for k, t := range st.tokens {
			if t.Expires.Before(now) {
				delete(st.tokens, k)
				n++
			}
		}
		return nil
	})
	return n, err
}
