// Package handlers holds the REST endpoints.
//
// Handlers stay thin: parse the request, call a service, write the envelope.
// Business rules live in services, SQL lives in repository.
package handlers

import (
	"net/http"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
)

type contextKey string

// UserContextKey is where the auth middleware stores the caller (*models.User).
const UserContextKey contextKey = "user"

// currentUser returns the authenticated caller, writing a 401 when the
// middleware did not run.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}
