// Package rest exposes the microblog services as a JSON HTTP API on gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Pinger is satisfied by dbx.Store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services bundles everything the handlers call into.
type Services struct {
	Users   *services.UserService
	Graph   *services.GraphService
	Posts   *services.PostService
	Feed    *services.FeedService
	Profile *services.ProfileService
	Store   Pinger
}

type Server struct {
	address      string
	logger       logging.Logger
	svc          *Services
	postsPerPage int
}

func NewServer(a string, l logging.Logger, svc *Services, postsPerPage int) *Server {
	return &Server{
		address:      a,
		logger:       l.With("module", "http_server"),
		svc:          svc,
		postsPerPage: postsPerPage,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), cors.New(corsConfig()))

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)
	authGroup.POST("/logout", s.logout)

	private := api.Group("", s.authenticate())
	private.GET("/feed", s.feed)
	private.GET("/explore", s.explore)
	private.POST("/posts", s.createPost)

	private.GET("/users/:username", s.userProfile)
	private.GET("/users/:username/posts", s.userPosts)
	private.GET("/users/:username/followers", s.followers)
	private.GET("/users/:username/following", s.following)
	private.POST("/users/:username/follow", s.follow)
	private.POST("/users/:username/unfollow", s.unfollow)

	private.GET("/profile", s.currentProfile)
	private.PUT("/profile", s.editProfile)
	private.PUT("/profile/password", s.changePassword)
	private.POST("/profile/avatar", s.avatarUpload)

	return r
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AddAllowHeaders(common.AuthorizationHeaderName, requestIDHeader)
	cfg.AddExposeHeaders(requestIDHeader)
	return cfg
}

func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve handles requests on listen until ctx is done, then drains in-flight
// requests.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
