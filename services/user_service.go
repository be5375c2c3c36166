package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/repository"
	"github.com/akinalp/socialspace/ws"
)

// SearchLimit caps user search results.
const SearchLimit = 40

// UserService covers profiles, suggestions, search and the follow graph.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	// EditProfile applies req and, when avatar is non-nil, replaces the picture.
	EditProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest, avatar *Upload) (*models.User, error)
	Suggested(ctx context.Context, userID string) ([]models.User, error)
	Search(ctx context.Context, query string) ([]models.User, error)
	// FollowOrUnfollow toggles the edge actorID → targetID and notifies the target.
	FollowOrUnfollow(ctx context.Context, actorID, targetID string) (*models.FollowResult, error)
	TouchLastSeen(ctx context.Context, userID string) error
}

type userService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	uploads    UploadService
	actors     *ActorCache
	notifier   *notifier
}

// NewUserService wires a UserService.
func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	uploads UploadService,
	actors *ActorCache,
	dispatch ws.Notifier,
) UserService {
	return &userService{
		userRepo:   userRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		uploads:    uploads,
		actors:     actors,
		notifier:   newNotifier(dispatch, actors),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	bookmarks, err := s.postRepo.BookmarkedPostIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		User:      *user,
		Followers: followers,
		Following: following,
		Posts:     posts,
		Bookmarks: bookmarks,
	}, nil
}

func (s *userService) EditProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest, avatar *Upload) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldAvatar := user.AvatarURL
	if avatar != nil {
		url, err := s.uploads.SaveImage(ctx, avatar)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = url
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if avatar != nil {
			s.uploads.Remove(ctx, user.AvatarURL)
		}
		return nil, err
	}

	if avatar != nil && oldAvatar != "" {
		s.uploads.Remove(ctx, oldAvatar)
	}
	s.actors.Invalidate(userID)
	return user, nil
}

func (s *userService) Suggested(ctx context.Context, userID string) ([]models.User, error) {
	return s.userRepo.ListExcept(ctx, userID)
}

func (s *userService) Search(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return s.userRepo.Search(ctx, query, SearchLimit)
}

func (s *userService) FollowOrUnfollow(ctx context.Context, actorID, targetID string) (*models.FollowResult, error) {
	if actorID == targetID {
		return nil, fmt.Errorf("%w: you cannot follow/unfollow yourself", pkg.ErrBadRequest)
	}

	target, err := s.actors.Summary(ctx, targetID)
	if err != nil {
		return nil, err
	}

	following, err := s.followRepo.IsFollowing(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	actor, err := s.actors.Summary(ctx, actorID)
	if err != nil {
		return nil, err
	}

	note := models.Notification{ActorID: actorID, TargetID: target.ID}
	if following {
		if err := s.followRepo.Unfollow(ctx, actorID, targetID); err != nil {
			return nil, err
		}
		note.Type = models.NotificationUnfollow
		note.Message = actor.Username + " unfollowed you"
	} else {
		if err := s.followRepo.Follow(ctx, actorID, targetID); err != nil {
			return nil, err
		}
		note.Type = models.NotificationFollow
		note.Message = actor.Username + " started following you"
	}

	s.notifier.notify(ctx, targetID, note)
	return &models.FollowResult{Following: !following}, nil
}

func (s *userService) TouchLastSeen(ctx context.Context, userID string) error {
	return s.userRepo.TouchLastSeen(ctx, userID, time.Now())
}
