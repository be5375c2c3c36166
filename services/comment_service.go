package services

import (
	"context"
	"fmt"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/repository"
	"github.com/akinalp/socialspace/ws"
)

// CommentService covers post comments.
type CommentService interface {
	// Add validates req before touching any state, then stores the comment
	// and notifies the post owner.
	Add(ctx context.Context, userID, postID string, req *models.CreateCommentRequest) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	// Delete is allowed to the comment author and to the post owner.
	Delete(ctx context.Context, userID, postID, commentID string) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	actors      *ActorCache
	notifier    *notifier
}

// NewCommentService wires a CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	actors *ActorCache,
	dispatch ws.Notifier,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		actors:      actors,
		notifier:    newNotifier(dispatch, actors),
	}
}

func (s *commentService) Add(ctx context.Context, userID, postID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	author, err := s.actors.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, AuthorID: userID, Author: author, Text: req.Text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.notifier.notify(ctx, post.AuthorID, models.Notification{
		Type:        models.NotificationComment,
		ActorID:     userID,
		TargetID:    postID,
		Message:     "Someone commented on your post",
		CommentID:   comment.ID,
		CommentText: comment.Text,
	})
	return comment, nil
}

func (s *commentService) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *commentService) Delete(ctx context.Context, userID, postID, commentID string) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.PostID != postID {
		return fmt.Errorf("%w: comment", pkg.ErrNotFound)
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if comment.AuthorID != userID && post.AuthorID != userID {
		return fmt.Errorf("%w: only the comment author or the post owner can delete this comment", pkg.ErrForbidden)
	}
	return s.commentRepo.Delete(ctx, commentID)
}
