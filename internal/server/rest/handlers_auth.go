package rest

import (
	"net/http"

	"github.com/dmitrijs2005/microblog/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	user, err := s.svc.Users.Register(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	tokens, err := s.svc.Users.Login(c.Request.Context(), in.Username, in.Password, in.RememberMe)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (s *Server) refresh(c *gin.Context) {
	var in refreshRequest
	if err := c.ShouldBindJSON(&in); err != nil || in.RefreshToken == "" {
		badRequest(c)
		return
	}

	tokens, err := s.svc.Users.RefreshToken(c.Request.Context(), in.RefreshToken)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (s *Server) logout(c *gin.Context) {
	var in refreshRequest
	if err := c.ShouldBindJSON(&in); err != nil || in.RefreshToken == "" {
		badRequest(c)
		return
	}

	if err := s.svc.Users.Logout(c.Request.Context(), in.RefreshToken); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
