package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type createPostRequest struct {
	Body string `json:"body"`
}

func (s *Server) feed(c *gin.Context) {
	page, err := s.svc.Feed.FeedFor(c.Request.Context(), actorID(c), pageParam(c), s.postsPerPage)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) explore(c *gin.Context) {
	page, err := s.svc.Feed.GlobalFeed(c.Request.Context(), pageParam(c), s.postsPerPage)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) createPost(c *gin.Context) {
	var in createPostRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}

	post, err := s.svc.Posts.Create(c.Request.Context(), actorID(c), in.Body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) userPosts(c *gin.Context) {
	page, err := s.svc.Feed.UserPosts(c.Request.Context(), c.Param("username"), pageParam(c), s.postsPerPage)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// pageParam reads ?page=N. Missing or malformed values mean the first page.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
