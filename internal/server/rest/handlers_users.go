package rest

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/services"
	"github.com/gin-gonic/gin"
)

type userList struct {
	Items []*models.User `json:"items"`
}

type followResponse struct {
	Username  string `json:"username"`
	Following bool   `json:"following"`
}

func (s *Server) userProfile(c *gin.Context) {
	view, err := s.svc.Profile.View(c.Request.Context(), actorID(c), c.Param("username"), services.DefaultAvatarSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) followers(c *gin.Context) {
	s.listUsers(c, s.svc.Graph.Followers)
}

func (s *Server) following(c *gin.Context) {
	s.listUsers(c, s.svc.Graph.Following)
}

func (s *Server) listUsers(c *gin.Context, list func(ctx context.Context, userID int64) ([]*models.User, error)) {
	ctx := c.Request.Context()

	user, err := s.svc.Profile.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	users, err := list(ctx, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, userList{Items: users})
}

func (s *Server) follow(c *gin.Context) {
	username := c.Param("username")
	if err := s.svc.Graph.Follow(c.Request.Context(), actorID(c), username); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, followResponse{Username: username, Following: true})
}

func (s *Server) unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := s.svc.Graph.Unfollow(c.Request.Context(), actorID(c), username); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, followResponse{Username: username, Following: false})
}
