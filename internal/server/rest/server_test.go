package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	api.server.svc.Store = failingPinger{}
	w = api.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/healthz", nil, "")
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/feed", nil)
	req.Header.Set("Origin", "http://client.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRespondError(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{name: "validation", err: validation.New("body", "required"), code: http.StatusUnprocessableEntity,
			body: `{"error":"validation failed","fields":[{"field":"body","message":"required"}]}`},
		{name: "wrapped not found", err: fmt.Errorf("db error: %w", common.ErrorNotFound), code: http.StatusNotFound, body: `{"error":"not found"}`},
		{name: "unauthorized", err: common.ErrorUnauthorized, code: http.StatusUnauthorized, body: `{"error":"unauthorized"}`},
		{name: "invalid token", err: common.ErrInvalidToken, code: http.StatusUnauthorized, body: `{"error":"unauthorized"}`},
		{name: "expired token", err: common.ErrTokenExpired, code: http.StatusUnauthorized, body: `{"error":"token expired"}`},
		{name: "expired refresh", err: common.ErrRefreshTokenExpired, code: http.StatusUnauthorized, body: `{"error":"token expired"}`},
		{name: "storage", err: common.ErrorStorageDisabled, code: http.StatusServiceUnavailable, body: `{"error":"object storage disabled"}`},
		{name: "internal details hidden", err: errors.New("db error: connection refused"), code: http.StatusInternalServerError, body: `{"error":"internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			api.server.respondError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	api := newTestAPI(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- api.server.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	api := newTestAPI(t)
	api.server.address = "127.0.0.1:99999"

	assert.Error(t, api.server.Run(context.Background()))
}
