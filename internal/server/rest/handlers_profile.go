package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/microblog/internal/server/services"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type editProfileRequest struct {
	Username string `json:"username"`
	AboutMe  string `json:"about_me"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type avatarUploadResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) currentProfile(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := s.svc.Profile.GetByID(ctx, actorID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	view, err := s.svc.Profile.View(ctx, user.ID, user.Username, services.DefaultAvatarSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) editProfile(c *gin.Context) {
	var in editProfileRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	user, err := s.svc.Profile.EditProfile(c.Request.Context(), actorID(c), in.Username, in.AboutMe)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) changePassword(c *gin.Context) {
	var in changePasswordRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	if err := s.svc.Profile.ChangePassword(c.Request.Context(), actorID(c), in.CurrentPassword, in.NewPassword); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) avatarUpload(c *gin.Context) {
	key, url, err := s.svc.Profile.AvatarUploadURL(c.Request.Context(), actorID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, avatarUploadResponse{
		Key:       key,
		UploadURL: url,
		ExpiresAt: time.Now().UTC().Add(services.PresignExpiry),
	})
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s.svc.Store.PingContext(ctx); err != nil {
		requestLogger(c).Warn(ctx, "store ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
