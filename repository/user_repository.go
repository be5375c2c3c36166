// Package repository is the data access layer. Services depend on the
// interfaces declared here; the sqlite_*.go files implement them over a
// database.TxQuerier so they work inside or outside a transaction.
package repository

import (
	"context"
	"time"

	"github.com/akinalp/socialspace/models"
)

// UserRepository stores accounts and profile fields.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetSummary(ctx context.Context, id string) (*models.UserSummary, error)
	// ListExcept returns every user but userID, newest first.
	ListExcept(ctx context.Context, userID string) ([]models.User, error)
	// Search matches username case-insensitively as a substring.
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
}
