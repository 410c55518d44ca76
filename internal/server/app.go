// Package server wires configuration, storage, services and the network
// servers together and runs them until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/microblog/internal/cryptox"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/health"
	"github.com/dmitrijs2005/microblog/internal/server/rest"
	"github.com/dmitrijs2005/microblog/internal/server/services"
)

const tokenPurgeInterval = time.Hour

type App struct {
	config   *config.Config
	logger   logging.Logger
	backend  *Backend
	services *rest.Services
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	backend, err := OpenBackend(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := backend.Migrate(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}

	creds, err := services.NewCredentials(cryptox.NewArgon2Hasher(cryptox.DefaultArgon2Params))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	// a nil *S3Storage must not become a non-nil interface
	var storage services.ObjectStorage
	if s3 := services.NewS3Storage(c); s3 != nil {
		storage = s3
	} else {
		logger.Info(ctx, "S3 bucket not configured, avatars fall back to Gravatar")
	}

	store, repos := backend.Store, backend.Repos
	svc := &rest.Services{
		Users:   services.NewUserService(store, repos, creds, c),
		Graph:   services.NewGraphService(store, repos),
		Posts:   services.NewPostService(store, repos),
		Feed:    services.NewFeedService(store, repos),
		Profile: services.NewProfileService(store, repos, creds, storage),
		Store:   store,
	}

	return &App{config: c, logger: logger, backend: backend, services: svc}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewServer(app.config.HTTPAddress, app.logger, app.services, app.config.PostsPerPage)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := health.NewHealthServer(app.config.GRPCAddress, app.logger, app.backend.Store)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeTokens drops expired refresh tokens every interval until ctx is done.
func (app *App) purgeTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.services.Users.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}

// Run serves until ctx is canceled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeTokens(ctx, tokenPurgeInterval)
	}()

	wg.Wait()

	if err := app.backend.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
