// Package middleware holds the http.Handler wrappers that run before the
// REST handlers.
//
// A middleware is a func(next http.Handler) http.Handler: it does its check
// and either calls next or answers the request itself.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/socialspace/handlers"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/repository"
	"github.com/akinalp/socialspace/services"
	"github.com/akinalp/socialspace/ws"
)

// AuthMiddleware authenticates requests by access token.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware builds an AuthMiddleware.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require rejects requests without a valid token with 401. The token comes
// from the session cookie or an "Authorization: Bearer <token>" header; the
// header wins when both are present.
//
// On success the caller is loaded from the database and stored under
// handlers.UserContextKey with its password hash cleared.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// The token can outlive its user.
		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		return token, ok && token != ""
	}
	if c, err := r.Cookie(ws.TokenCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}
