package main

import (
	"net/http"

	"github.com/akinalp/socialspace/middleware"
	"github.com/akinalp/socialspace/repository"
	"github.com/akinalp/socialspace/services"
)

// initRoutes binds every endpoint to mux.
//
// Literal paths must not be shadowed by parametric ones: "/api/v1/user/suggested"
// and "/api/v1/user/{id}/profile" differ in segment count, "/api/v1/post/all"
// is more specific than "/api/v1/post/{id}" and wins in Go 1.22+ routing.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService, userRepo repository.UserRepository) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	mux.HandleFunc("GET /api/health", h.Online.Health)

	// User
	mux.HandleFunc("POST /api/v1/user/register", h.Auth.Register)
	mux.HandleFunc("POST /api/v1/user/login", h.Auth.Login)
	mux.HandleFunc("POST /api/v1/user/logout", h.Auth.Logout)
	mux.Handle("GET /api/v1/user/{id}/profile", auth(h.User.Profile))
	mux.Handle("POST /api/v1/user/profile/edit", auth(h.User.EditProfile))
	mux.Handle("GET /api/v1/user/suggested", auth(h.User.Suggested))
	mux.Handle("POST /api/v1/user/followorunfollow/{id}", auth(h.User.FollowOrUnfollow))
	mux.Handle("GET /api/v1/user/search", auth(h.User.Search))

	// Posts
	mux.Handle("POST /api/v1/post/addpost", auth(h.Post.Create))
	mux.Handle("GET /api/v1/post/all", auth(h.Post.List))
	mux.Handle("GET /api/v1/post/{id}", auth(h.Post.Get))
	mux.Handle("POST /api/v1/post/{id}/like", auth(h.Post.Like))
	mux.Handle("POST /api/v1/post/{id}/dislike", auth(h.Post.Dislike))
	mux.Handle("DELETE /api/v1/post/delete/{id}", auth(h.Post.Delete))
	mux.Handle("POST /api/v1/post/{id}/bookmark", auth(h.Post.Bookmark))

	// Comments
	mux.Handle("POST /api/v1/post/{id}/comment", auth(h.Post.AddComment))
	mux.Handle("GET /api/v1/post/{id}/comment/all", auth(h.Post.ListComments))
	mux.Handle("DELETE /api/v1/post/{postId}/comment/{commentId}", auth(h.Post.DeleteComment))

	// Messages
	mux.Handle("POST /api/v1/message/send/{id}", auth(h.Message.Send))
	mux.Handle("GET /api/v1/message/all/{id}", auth(h.Message.Conversation))

	// Presence
	mux.Handle("GET /api/v1/online", auth(h.Online.Online))

	mux.HandleFunc("GET /api/uploads/{name}", h.Blob.Serve)

	// The socket authenticates itself: browsers cannot set headers on the
	// upgrade request, so the token rides in the query or the cookie.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
