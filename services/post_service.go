package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/repository"
	"github.com/akinalp/socialspace/ws"
)

// MaxCaptionLength bounds a post caption.
const MaxCaptionLength = 2200

// PostService covers posts, likes and bookmarks.
type PostService interface {
	Create(ctx context.Context, authorID, caption string, image *Upload) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, postID string) (*models.Post, error)
	// Like adds userID to the post's likers and notifies the owner.
	Like(ctx context.Context, userID, postID string) error
	// Dislike removes userID from the post's likers and notifies the owner.
	Dislike(ctx context.Context, userID, postID string) error
	// Delete is allowed to the author only.
	Delete(ctx context.Context, userID, postID string) error
	ToggleBookmark(ctx context.Context, userID, postID string) (*models.BookmarkResult, error)
}

type postService struct {
	postRepo repository.PostRepository
	uploads  UploadService
	actors   *ActorCache
	notifier *notifier
}

// NewPostService wires a PostService.
func NewPostService(
	postRepo repository.PostRepository,
	uploads UploadService,
	actors *ActorCache,
	dispatch ws.Notifier,
) PostService {
	return &postService{
		postRepo: postRepo,
		uploads:  uploads,
		actors:   actors,
		notifier: newNotifier(dispatch, actors),
	}
}

func (s *postService) Create(ctx context.Context, authorID, caption string, image *Upload) (*models.Post, error) {
	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return nil, fmt.Errorf("%w: caption must be at most %d characters", pkg.ErrBadRequest, MaxCaptionLength)
	}
	if image == nil {
		return nil, fmt.Errorf("%w: image required", pkg.ErrBadRequest)
	}

	author, err := s.actors.Summary(ctx, authorID)
	if err != nil {
		return nil, err
	}

	url, err := s.uploads.SaveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: authorID, Author: author, Caption: caption, Image: url}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.uploads.Remove(ctx, url)
		return nil, err
	}
	return post, nil
}

func (s *postService) List(ctx context.Context) ([]models.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *postService) Get(ctx context.Context, postID string) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

func (s *postService) Like(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.postRepo.AddLike(ctx, postID, userID); err != nil {
		return err
	}

	s.notifier.notify(ctx, post.AuthorID, models.Notification{
		Type:     models.NotificationLike,
		ActorID:  userID,
		TargetID: postID,
		Message:  "Your post was liked",
	})
	return nil
}

func (s *postService) Dislike(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.postRepo.RemoveLike(ctx, postID, userID); err != nil {
		return err
	}

	s.notifier.notify(ctx, post.AuthorID, models.Notification{
		Type:     models.NotificationDislike,
		ActorID:  userID,
		TargetID: postID,
		Message:  "Your post was disliked",
	})
	return nil
}

func (s *postService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return fmt.Errorf("%w: only the author can delete this post", pkg.ErrForbidden)
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	s.uploads.Remove(ctx, post.Image)
	return nil
}

func (s *postService) ToggleBookmark(ctx context.Context, userID, postID string) (*models.BookmarkResult, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	saved, err := s.postRepo.IsBookmarked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if saved {
		if err := s.postRepo.RemoveBookmark(ctx, userID, postID); err != nil {
			return nil, err
		}
		return &models.BookmarkResult{Type: "unsaved"}, nil
	}

	if err := s.postRepo.AddBookmark(ctx, userID, postID); err != nil {
		return nil, err
	}
	return &models.BookmarkResult{Type: "saved"}, nil
}
