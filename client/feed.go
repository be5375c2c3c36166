package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/akinalp/socialspace/models"
)

// TempIDPrefix marks comment ids the server has not assigned yet.
const TempIDPrefix = "tmp-"

// FeedAPI is the part of the REST client the Feed mutates through.
// Implemented by *API.
type FeedAPI interface {
	Like(ctx context.Context, postID string) error
	Dislike(ctx context.Context, postID string) error
	Bookmark(ctx context.Context, postID string) (string, error)
	AddComment(ctx context.Context, postID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	DeletePost(ctx context.Context, postID string) error
	FollowOrUnfollow(ctx context.Context, userID string) (bool, error)
}

// LikeState is the like toggle of one post as the caller sees it.
type LikeState struct {
	Liked bool
	Count int
}

// Feed is the caller's local view of posts and follows. Every action goes
// through an optimistic Controller: the view changes immediately and rolls
// back if the request fails.
type Feed struct {
	api  FeedAPI
	self models.UserSummary

	likes     *Controller[string, LikeState]
	bookmarks *Controller[string, bool]
	comments  *Controller[string, []models.Comment]
	deleted   *Controller[string, bool]
	following *Controller[string, bool]

	newTempID func() string
}

// NewFeed returns an empty feed acting as self. onFailure is called after
// every rollback with the entity key (post or user id) and the error.
func NewFeed(api FeedAPI, self models.UserSummary, onFailure func(key string, err error)) *Feed {
	return &Feed{
		api:       api,
		self:      self,
		likes:     NewController[string, LikeState](onFailure),
		bookmarks: NewController[string, bool](onFailure),
		comments:  NewController[string, []models.Comment](onFailure),
		deleted:   NewController[string, bool](onFailure),
		following: NewController[string, bool](onFailure),
		newTempID: func() string { return TempIDPrefix + uuid.NewString() },
	}
}

// Load seeds the view from server data.
func (f *Feed) Load(posts []models.Post, bookmarks, following []string) {
	saved := make(map[string]bool, len(bookmarks))
	for _, id := range bookmarks {
		saved[id] = true
	}

	for _, p := range posts {
		liked := false
		for _, id := range p.Likes {
			if id == f.self.ID {
				liked = true
				break
			}
		}
		f.likes.Set(p.ID, LikeState{Liked: liked, Count: len(p.Likes)})
		f.bookmarks.Set(p.ID, saved[p.ID])
		f.comments.Set(p.ID, append([]models.Comment(nil), p.Comments...))
		f.deleted.Set(p.ID, false)
	}
	for _, id := range following {
		f.following.Set(id, true)
	}
}

// Like returns the like toggle of postID.
func (f *Feed) Like(postID string) LikeState {
	s, _ := f.likes.Get(postID)
	return s
}

func (f *Feed) Bookmarked(postID string) bool {
	b, _ := f.bookmarks.Get(postID)
	return b
}

// Comments returns the comments of postID, pending ones included.
func (f *Feed) Comments(postID string) []models.Comment {
	c, _ := f.comments.Get(postID)
	return append([]models.Comment(nil), c...)
}

func (f *Feed) Deleted(postID string) bool {
	d, _ := f.deleted.Get(postID)
	return d
}

func (f *Feed) Following(userID string) bool {
	b, _ := f.following.Get(userID)
	return b
}

// ToggleLike likes postID, or dislikes it when already liked.
func (f *Feed) ToggleLike(ctx context.Context, postID string) error {
	var liking bool
	return f.likes.Mutate(ctx, postID, Mutation[LikeState]{
		Predict: func(cur LikeState) LikeState {
			liking = !cur.Liked
			if liking {
				return LikeState{Liked: true, Count: cur.Count + 1}
			}
			return LikeState{Liked: false, Count: max(cur.Count-1, 0)}
		},
		Send: func(ctx context.Context) (Reconcile[LikeState], error) {
			if liking {
				return nil, f.api.Like(ctx, postID)
			}
			return nil, f.api.Dislike(ctx, postID)
		},
	})
}

// ToggleBookmark flips the bookmark of postID and settles on the server's
// answer.
func (f *Feed) ToggleBookmark(ctx context.Context, postID string) error {
	return f.bookmarks.Mutate(ctx, postID, Mutation[bool]{
		Predict: func(cur bool) bool { return !cur },
		Send: func(ctx context.Context) (Reconcile[bool], error) {
			kind, err := f.api.Bookmark(ctx, postID)
			if err != nil {
				return nil, err
			}
			return func(bool) bool { return kind == "saved" }, nil
		},
	})
}

// AddComment shows text under postID at once with a temporary id, then
// swaps in the stored comment. Empty text is rejected before anything is
// shown.
func (f *Feed) AddComment(ctx context.Context, postID, text string) error {
	text = strings.TrimSpace(text)
	tempID := f.newTempID()

	return f.comments.Mutate(ctx, postID, Mutation[[]models.Comment]{
		Validate: func([]models.Comment) error {
			if text == "" {
				return errors.New("comment can't be empty")
			}
			if utf8.RuneCountInString(text) > models.MaxCommentLength {
				return fmt.Errorf("comment must be at most %d characters", models.MaxCommentLength)
			}
			return nil
		},
		Predict: func(cur []models.Comment) []models.Comment {
			next := make([]models.Comment, len(cur), len(cur)+1)
			copy(next, cur)
			return append(next, models.Comment{
				ID:       tempID,
				PostID:   postID,
				AuthorID: f.self.ID,
				Author:   f.self,
				Text:     text,
			})
		},
		Send: func(ctx context.Context) (Reconcile[[]models.Comment], error) {
			stored, err := f.api.AddComment(ctx, postID, text)
			if err != nil {
				return nil, err
			}
			return func(cur []models.Comment) []models.Comment {
				next := make([]models.Comment, len(cur))
				for i, c := range cur {
					if c.ID == tempID {
						c = *stored
					}
					next[i] = c
				}
				return next
			}, nil
		},
	})
}

// DeleteComment hides commentID under postID at once.
func (f *Feed) DeleteComment(ctx context.Context, postID, commentID string) error {
	return f.comments.Mutate(ctx, postID, Mutation[[]models.Comment]{
		Validate: func(cur []models.Comment) error {
			if strings.HasPrefix(commentID, TempIDPrefix) {
				return errors.New("comment is not saved yet")
			}
			for _, c := range cur {
				if c.ID == commentID {
					return nil
				}
			}
			return fmt.Errorf("comment %s not found", commentID)
		},
		Predict: func(cur []models.Comment) []models.Comment {
			next := make([]models.Comment, 0, len(cur))
			for _, c := range cur {
				if c.ID != commentID {
					next = append(next, c)
				}
			}
			return next
		},
		Send: func(ctx context.Context) (Reconcile[[]models.Comment], error) {
			return nil, f.api.DeleteComment(ctx, postID, commentID)
		},
	})
}

// DeletePost hides postID at once.
func (f *Feed) DeletePost(ctx context.Context, postID string) error {
	return f.deleted.Mutate(ctx, postID, Mutation[bool]{
		Validate: func(deleted bool) error {
			if deleted {
				return fmt.Errorf("post %s already deleted", postID)
			}
			return nil
		},
		Predict: func(bool) bool { return true },
		Send: func(ctx context.Context) (Reconcile[bool], error) {
			return nil, f.api.DeletePost(ctx, postID)
		},
	})
}

// ToggleFollow follows or unfollows userID and settles on the server's
// answer.
func (f *Feed) ToggleFollow(ctx context.Context, userID string) error {
	return f.following.Mutate(ctx, userID, Mutation[bool]{
		Validate: func(bool) error {
			if userID == f.self.ID {
				return errors.New("you cannot follow/unfollow yourself")
			}
			return nil
		},
		Predict: func(cur bool) bool { return !cur },
		Send: func(ctx context.Context) (Reconcile[bool], error) {
			following, err := f.api.FollowOrUnfollow(ctx, userID)
			if err != nil {
				return nil, err
			}
			return func(bool) bool { return following }, nil
		},
	})
}
