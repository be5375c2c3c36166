package main

import (
	"time"

	"github.com/akinalp/socialspace/config"
	"github.com/akinalp/socialspace/pkg/blob"
	"github.com/akinalp/socialspace/pkg/ratelimit"
	"github.com/akinalp/socialspace/services"
	"github.com/akinalp/socialspace/ws"
)

// actorCacheTTL bounds how stale a username or avatar in a notification
// can be when the cache misses an invalidation.
const actorCacheTTL = 5 * time.Minute

// Services groups the service implementations.
type Services struct {
	Auth    services.AuthService
	User    services.UserService
	Post    services.PostService
	Comment services.CommentService
	Message services.MessageService
	Upload  services.UploadService

	actors *services.ActorCache
}

// RateLimiters groups the limiters shared by the handlers.
type RateLimiters struct {
	Login   *ratelimit.LoginRateLimiter
	Message *ratelimit.MessageRateLimiter
	Comment *ratelimit.MessageRateLimiter
}

// Stop ends the limiters' background sweepers.
func (l *RateLimiters) Stop() {
	l.Login.Stop()
	l.Message.Stop()
	l.Comment.Stop()
}

// initServices builds the services. dispatch receives every notification
// and direct message the services produce.
func initServices(repos *Repositories, store *blob.DiskStore, dispatch ws.Notifier, cfg *config.Config) (*Services, *RateLimiters) {
	actors := services.NewActorCache(repos.User, actorCacheTTL)
	uploads := services.NewUploadService(store, cfg.Upload.MaxSize)

	svcs := &Services{
		Auth:    services.NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.TokenTTL()),
		User:    services.NewUserService(repos.User, repos.Follow, repos.Post, uploads, actors, dispatch),
		Post:    services.NewPostService(repos.Post, uploads, actors, dispatch),
		Comment: services.NewCommentService(repos.Comment, repos.Post, actors, dispatch),
		Message: services.NewMessageService(repos.Message, actors, dispatch),
		Upload:  uploads,
		actors:  actors,
	}

	limiters := &RateLimiters{
		Login:   ratelimit.NewLoginRateLimiter(5, 2*time.Minute),
		Message: ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second),
		Comment: ratelimit.NewMessageRateLimiter(10, 30*time.Second, 30*time.Second),
	}

	return svcs, limiters
}
