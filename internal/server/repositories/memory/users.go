package memory

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/users"
)

var errValueTooLong = errors.New("db error: value too long")

type userRepo struct {
	m    *Manager
	inTx bool
}

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		if err := checkUserLimits(user.Username, user.Email, user.AboutMe); err != nil {
			return err
		}
		if err := checkUnique(st, 0, user.Username, user.Email); err != nil {
			return err
		}
		st.nextUserID++
		user.ID = st.nextUserID
		now := time.Now().UTC().Truncate(time.Microsecond)
		if user.LastSeen.IsZero() {
			user.LastSeen = now
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		cp := *user
		st.users[user.ID] = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		u := findByUsername(st, username)
		if u == nil {
			return common.ErrorNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (r *userRepo) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var taken bool
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		u := findByUsername(st, username)
		taken = u != nil && u.ID != excludeID
		return nil
	})
	return taken, err
}

func (r *userRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.m.run(ctx, r.inTx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				taken = true
				break
			}
		}
		return nil
	})
	return taken, err
}

func (r *userRepo) UpdateProfile(ctx context.Context, id int64, username, aboutMe string) error {
	return r.update(ctx, id, func(st *state, u *models.User) error {
		if err := checkUserLimits(username, u.Email, aboutMe); err != nil {
			return err
		}
		if err := checkUnique(st, id, username, ""); err != nil {
			return err
		}
		u.Username = username
		u.AboutMe = aboutMe
		return nil
	})
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, id, func(_ *state, u *models.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *userRepo) UpdateAvatarKey(ctx context.Context, id int64, key string) error {
	return r.update(ctx, id, func(_ *state, u *models.User) error {
		u.AvatarKey = key
		return nil
	})
}

// TouchLastSeen ignores unknown ids, like an UPDATE matching no rows.
func (r *userRepo) TouchLastSeen(ctx context.Context, id int64, at time.Time) error {
	return r.m.run(ctx, r.inTx, func(st *state) error {
		if u, ok := st.users[id]; ok {
			u.LastSeen = at
		}
		return nil
	})
}

func (r *userRepo) update(ctx context.Context, id int64, fn func(st *state, u *models.User) error) error {
	return r.m.run(ctx, r.inTx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		cp := *u
		if err := fn(st, &cp); err != nil {
			return err
		}
		st.users[id] = &cp
		return nil
	})
}

func findByUsername(st *state, username string) *models.User {
	for _, u := range st.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// checkUnique mirrors the unique indexes on users; an empty email skips the
// email check.
func checkUnique(st *state, selfID int64, username, email string) error {
	for _, u := range st.users {
		if u.ID == selfID {
			continue
		}
		if u.Username == username {
			return users.ErrUsernameTaken
		}
		if email != "" && u.Email == email {
			return users.ErrEmailTaken
		}
	}
	return nil
}

func checkUserLimits(username, email, aboutMe string) error {
	if utf8.RuneCountInString(username) > common.UsernameMaxLen ||
		utf8.RuneCountInString(email) > common.EmailMaxLen ||
		utf8.RuneCountInString(aboutMe) > common.AboutMeMaxLen {
		return errValueTooLong
	}
	return nil
}
