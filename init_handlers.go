package main

import (
	"github.com/akinalp/socialspace/config"
	"github.com/akinalp/socialspace/handlers"
	"github.com/akinalp/socialspace/pkg/blob"
	"github.com/akinalp/socialspace/ws"
)

// Handlers groups the HTTP handlers.
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Post    *handlers.PostHandler
	Message *handlers.MessageHandler
	Online  *handlers.OnlineHandler
	Blob    *handlers.BlobHandler
	WS      *ws.Handler
}

func initHandlers(
	svcs *Services,
	limiters *RateLimiters,
	hub *ws.Hub,
	dispatcher *ws.Dispatcher,
	store blob.Store,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		Auth: handlers.NewAuthHandler(svcs.Auth, limiters.Login, handlers.CookieOptions{
			Secure: cfg.Server.CookieSecure,
			MaxAge: cfg.JWT.TokenTTL(),
		}),
		User:    handlers.NewUserHandler(svcs.User, cfg.Upload.MaxSize),
		Post:    handlers.NewPostHandler(svcs.Post, svcs.Comment, cfg.Upload.MaxSize, limiters.Comment),
		Message: handlers.NewMessageHandler(svcs.Message, limiters.Message),
		Online:  handlers.NewOnlineHandler(hub, dispatcher),
		Blob:    handlers.NewBlobHandler(store),
		WS:      ws.NewHandler(hub, svcs.Auth, cfg.CORS.Origins),
	}
}
