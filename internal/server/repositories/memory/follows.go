package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

type followRepo struct {
	m    *Manager
	inTx bool
}

func (r *followRepo) Create(ctx context.Context, followerID, followedID int64) (bool, error) {
	var created bool
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		// foreign keys
		if _, ok := st.users[followerID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := st.users[followedID]; !ok {
			return common.ErrorNotFound
		}
		e := edge{followerID, followedID}
		if _, ok := st.follows[e]; ok {
			return nil
		}
		st.follows[e] = struct{}{}
		created = true
		return nil
	})
	return created, err
}

func (r *followRepo) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	var removed bool
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		e := edge{followerID, followedID}
		if _, ok := st.follows[e]; ok {
			delete(st.follows, e)
			removed = true
		}
		return nil
	})
	return removed, err
}

func (r *followRepo) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	var ok bool
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		_, ok = st.follows[edge{followerID, followedID}]
		return nil
	})
	return ok, err
}

func (r *followRepo) Followers(ctx context.Context, userID int64) ([]*models.User, error) {
	return r.list(ctx, func(e edge) (int64, bool) { return e.follower, e.followed == userID })
}

func (r *followRepo) Following(ctx context.Context, userID int64) ([]*models.User, error) {
	return r.list(ctx, func(e edge) (int64, bool) { return e.followed, e.follower == userID })
}

func (r *followRepo) Counts(ctx context.Context, userID int64) (int64, int64, error) {
	var followers, following int64
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		for e := range st.follows {
			if e.followed == userID {
				followers++
			}
			if e.follower == userID {
				following++
			}
		}
		return nil
	})
	return followers, following, err
}

// list returns the users picked by match, ordered by username and carrying
// only the columns the SQL repository selects.
func (r *followRepo) list(ctx context.Context, match func(e edge) (int64, bool)) ([]*models.User, error) {
	out := make([]*models.User, 0)
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		for e := range st.follows {
			id, ok := match(e)
			if !ok {
				continue
			}
			u := st.users[id]
			out = append(out, &models.User{
				ID:        u.ID,
				Username:  u.Username,
				AboutMe:   u.AboutMe,
				LastSeen:  u.LastSeen,
				CreatedAt: u.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
