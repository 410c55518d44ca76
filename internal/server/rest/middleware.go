package rest

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = common.RequestIDHeaderName

	ctxRequestID = "request_id"
	ctxLogger    = "logger"
	ctxUserID    = "user_id"
)

// requestID takes the caller's X-Request-ID or mints one, echoes it back and
// attaches a logger carrying it.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Set(ctxLogger, s.logger.With("request_id", id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestLogger(c).Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// authenticate resolves the bearer token to a user id and marks the user
// as seen.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			s.respondError(c, common.ErrorUnauthorized)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		userID, err := s.svc.Users.Authenticate(ctx, token)
		if err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}

		if err := s.svc.Users.Touch(ctx, userID); err != nil {
			requestLogger(c).Warn(ctx, "failed to update last_seen", "user_id", userID, "error", err)
		}

		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func requestLogger(c *gin.Context) logging.Logger {
	if l, ok := c.Get(ctxLogger); ok {
		return l.(logging.Logger)
	}
	return logging.Nop{}
}

func actorID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}
