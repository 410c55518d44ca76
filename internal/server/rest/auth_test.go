package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":         " alice ",
		"email":            "Alice@Example.com",
		"password":         "secret-pass",
		"password_confirm": "secret-pass",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	decode(t, w, &user)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Rejections(t *testing.T) {
	api := newTestAPI(t)
	api.signup("alice")

	t.Run("validation", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/auth/register", map[string]string{
			"username":         "alice",
			"email":            "not-an-email",
			"password":         "short",
			"password_confirm": "other",
		}, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body errorBody
		decode(t, w, &body)
		assert.Equal(t, "validation failed", body.Error)
		fields := map[string]bool{}
		for _, f := range body.Fields {
			fields[f.Field] = true
		}
		assert.True(t, fields["email"])
		assert.True(t, fields["password"])
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/auth/register", map[string]string{
			"username":         "alice",
			"email":            "other@example.com",
			"password":         "secret-pass",
			"password_confirm": "secret-pass",
		}, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body errorBody
		decode(t, w, &body)
		require.Len(t, body.Fields, 1)
		assert.Equal(t, "username", body.Fields[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/auth/register", "{", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin_GenericFailure(t *testing.T) {
	api := newTestAPI(t)
	api.signup("alice")

	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong-password"},
		{"username": "nobody", "password": "password-alice"},
	} {
		w := api.do(http.MethodPost, "/api/auth/login", creds, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
	}
}

func TestRefreshAndLogout(t *testing.T) {
	api := newTestAPI(t)
	api.signup("alice")

	tokens := api.login("alice", "password-alice", true)
	require.NotEmpty(t, tokens.RefreshToken)

	w := api.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": tokens.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rotated struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, w, &rotated)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// the old token was consumed by the rotation
	w = api.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": tokens.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/auth/logout", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": rotated.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/auth/logout", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthenticate_Middleware(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, want: http.StatusOK},
		{name: "scheme is case insensitive", header: "bearer " + token, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			api.router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthenticate_TouchesLastSeen(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	w := api.do(http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var first profileBody
	decode(t, w, &first)

	w = api.do(http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var second profileBody
	decode(t, w, &second)
	assert.False(t, second.User.LastSeen.Before(first.User.LastSeen))
	assert.False(t, first.User.LastSeen.Before(first.User.CreatedAt))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc", token: "abc", ok: true},
		{header: "  Bearer   abc  ", token: "abc", ok: true},
		{header: "BEARER abc", token: "abc", ok: true},
		{header: "Bearer", ok: false},
		{header: "Bearer  ", ok: false},
		{header: "Token abc", ok: false},
		{header: "", ok: false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
