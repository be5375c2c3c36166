package repository

import (
	"context"

	"github.com/akinalp/socialspace/models"
)

// PostRepository stores posts and the like and bookmark sets.
//
// Posts returned by Get/List carry their author summary, liker ids and
// comments (oldest first).
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	// Delete removes the post; likes, bookmarks and comments go with it.
	Delete(ctx context.Context, id string) error

	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error

	IsBookmarked(ctx context.Context, userID, postID string) (bool, error)
	AddBookmark(ctx context.Context, userID, postID string) error
	RemoveBookmark(ctx context.Context, userID, postID string) error
	BookmarkedPostIDs(ctx context.Context, userID string) ([]string, error)
}
