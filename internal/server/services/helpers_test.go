package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/microblog/internal/cryptox"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
)

var testHasherParams = cryptox.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

// stepClock advances one second per reading, so consecutive writes get
// distinct, increasing timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	m       *memory.Manager
	clock   *stepClock
	creds   *Credentials
	users   *UserService
	graph   *GraphService
	posts   *PostService
	feed    *FeedService
	profile *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	m := memory.NewManager()
	clock := newStepClock()

	creds, err := NewCredentials(cryptox.NewArgon2Hasher(testHasherParams))
	require.NoError(t, err)

	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}

	us := NewUserService(m, m, creds, cfg)
	us.now = clock.Now
	ps := NewPostService(m, m)
	ps.now = clock.Now

	return &testEnv{
		m:       m,
		clock:   clock,
		creds:   creds,
		users:   us,
		graph:   NewGraphService(m, m),
		posts:   ps,
		feed:    NewFeedService(m, m),
		profile: NewProfileService(m, m, creds, nil),
	}
}

func (e *testEnv) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{
		Username:        name,
		Email:           name + "@example.com",
		Password:        "password-" + name,
		PasswordConfirm: "password-" + name,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) post(t *testing.T, author *models.User, body string) *models.Post {
	t.Helper()
	p, err := e.posts.Create(context.Background(), author.ID, body)
	require.NoError(t, err)
	return p
}

func (e *testEnv) follow(t *testing.T, actor, target *models.User) {
	t.Helper()
	require.NoError(t, e.graph.Follow(context.Background(), actor.ID, target.Username))
}

func postIDs(ps []*models.Post) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func (e *testEnv) usersConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}
