package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/microblog/internal/cryptox"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/memory"
	"github.com/dmitrijs2005/microblog/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testHasherParams = cryptox.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

type testAPI struct {
	t      *testing.T
	m      *memory.Manager
	server *Server
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	m := memory.NewManager()

	creds, err := services.NewCredentials(cryptox.NewArgon2Hasher(testHasherParams))
	require.NoError(t, err)

	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}

	svc := &Services{
		Users:   services.NewUserService(m, m, creds, cfg),
		Graph:   services.NewGraphService(m, m),
		Posts:   services.NewPostService(m, m),
		Feed:    services.NewFeedService(m, m),
		Profile: services.NewProfileService(m, m, creds, nil),
		Store:   m,
	}

	s := NewServer("127.0.0.1:0", logging.Nop{}, svc, 3)
	return &testAPI{t: t, m: m, server: s, router: s.Router()}
}

func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// signup registers name with a derived password and returns an access token.
func (a *testAPI) signup(name string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":         name,
		"email":            name + "@example.com",
		"password":         "password-" + name,
		"password_confirm": "password-" + name,
	}, "")
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	tokens := a.login(name, "password-"+name, false)
	return tokens.AccessToken
}

func (a *testAPI) login(name, password string, remember bool) services.TokenPair {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", map[string]any{
		"username":    name,
		"password":    password,
		"remember_me": remember,
	}, "")
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var tokens services.TokenPair
	decode(a.t, w, &tokens)
	return tokens
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type pageBody struct {
	Items []struct {
		ID     int64  `json:"id"`
		Body   string `json:"body"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"items"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
	NextPage int   `json:"next_page"`
	PrevPage int   `json:"prev_page"`
}

type errorBody struct {
	Error  string `json:"error"`
	Fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

type profileBody struct {
	User struct {
		ID        int64     `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		AboutMe   string    `json:"about_me"`
		LastSeen  time.Time `json:"last_seen"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"user"`
	Followers   int64  `json:"followers"`
	Following   int64  `json:"following"`
	IsFollowing bool   `json:"is_following"`
	IsSelf      bool   `json:"is_self"`
	AvatarURL   string `json:"avatar_url"`
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return context.DeadlineExceeded }
